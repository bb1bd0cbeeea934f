package pipeline

import (
	"log/slog"

	"github.com/DeafMist/list-digest/internal/dedupe"
	"github.com/DeafMist/list-digest/internal/models"
	"github.com/DeafMist/list-digest/internal/processing"
	"github.com/DeafMist/list-digest/internal/threads"
)

// Selection limits for one source.
type Selection struct {
	ActiveTopN        int
	ActiveLimit       int
	RecentTopN        int
	RecentLimit       int
	SentenceThreshold int
}

// SelectActive picks up to limit of the busiest threads in window and
// returns the original post of each, annotated with its thread statistics.
// Titles are recorded in seen.
func SelectActive(window, all []models.Post, domain string, sel Selection, seen *dedupe.Set) []models.Post {
	devName := processing.DevName(domain)
	var out []models.Post
	for _, p := range threads.TopActive(window, sel.ActiveTopN, all) {
		if len(out) >= sel.ActiveLimit {
			break
		}
		if !seen.Add(p.Title) {
			continue
		}
		op, ok := threads.OriginalPost(p.Title, domain, all)
		if !ok {
			continue
		}
		out = append(out, threads.Annotate(op, threads.StatsFor(p.Title, domain, all), devName))
	}
	return out
}

// SelectRecent picks up to limit of the newest posts in window whose body
// is long enough and whose title is not in seen yet.
func SelectRecent(window, all []models.Post, domain string, sel Selection, seen *dedupe.Set, log *slog.Logger) []models.Post {
	log = discardLogger(log)
	devName := processing.DevName(domain)
	var out []models.Post
	for _, p := range threads.TopRecent(window, sel.RecentTopN) {
		if !processing.IsBodyLong(p.Body, sel.SentenceThreshold) {
			log.Info("skipping short post", slog.String("title", p.Title), slog.String("url", p.URL))
			continue
		}
		if !seen.Add(p.Title) {
			continue
		}
		if len(out) >= sel.RecentLimit {
			break
		}
		out = append(out, threads.Annotate(p, threads.StatsFor(p.Title, domain, all), devName))
	}
	return out
}

// NewThreads returns every thread-starting post of window, annotated.
func NewThreads(window, all []models.Post, domain string) []models.Post {
	devName := processing.DevName(domain)
	var out []models.Post
	for _, p := range window {
		if p.Type != models.TypeOriginalPost {
			continue
		}
		out = append(out, threads.Annotate(p, threads.StatsFor(p.Title, domain, all), devName))
	}
	return out
}

func postTitles(lists ...[]models.Post) *dedupe.Set {
	set := dedupe.NewSet()
	for _, list := range lists {
		for _, p := range list {
			set.Add(p.Title)
		}
	}
	return set
}
