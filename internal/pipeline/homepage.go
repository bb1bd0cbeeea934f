package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DeafMist/list-digest/internal/config"
	"github.com/DeafMist/list-digest/internal/dedupe"
	"github.com/DeafMist/list-digest/internal/feed"
	"github.com/DeafMist/list-digest/internal/models"
	"github.com/DeafMist/list-digest/internal/notify"
	"github.com/DeafMist/list-digest/internal/processing"
	"github.com/DeafMist/list-digest/internal/retry"
)

// FeedJob holds what the homepage and newsletter jobs share.
type FeedJob struct {
	Source    PostSource
	Builder   *Builder
	Store     *feed.Store
	Publisher notify.Publisher
	Log       *slog.Logger

	Sources   []string
	Window    time.Duration
	Selection Selection
	// Fetch wraps each document-store query.
	Fetch retry.Policy
	// Retry wraps the whole build-and-write step.
	Retry retry.Policy
	// Now is swapped in tests.
	Now func() time.Time
}

// NewFeedJob wires a FeedJob from cfg.
func NewFeedJob(cfg *config.Feed, src PostSource, sum Summarizer, store *feed.Store, pub notify.Publisher, log *slog.Logger) FeedJob {
	return FeedJob{
		Source:    src,
		Builder:   NewBuilder(store, sum, log),
		Store:     store,
		Publisher: pub,
		Log:       log,
		Sources:   cfg.Sources,
		Window:    cfg.Window,
		Selection: Selection{
			ActiveTopN:        cfg.ActiveTopN,
			ActiveLimit:       cfg.ActiveLimit,
			RecentTopN:        cfg.RecentTopN,
			RecentLimit:       cfg.RecentLimit,
			SentenceThreshold: cfg.SentenceThreshold,
		},
		Fetch: retry.Policy{
			MaxRetries: cfg.Retry.MaxRetries,
			Delay:      cfg.Retry.Delay,
			Log:        log,
		},
		Retry: retry.Policy{
			MaxRetries: cfg.JobRetry.MaxRetries,
			Delay:      cfg.JobRetry.Delay,
			Log:        log,
		},
	}
}

func (j *FeedJob) now() time.Time {
	if j.Now != nil {
		return j.Now().UTC()
	}
	return time.Now().UTC()
}

func (j *FeedJob) log() *slog.Logger {
	return discardLogger(j.Log)
}

func (j *FeedJob) publish(ctx context.Context, name, rel string, items int) {
	if j.Publisher == nil {
		return
	}
	ev := notify.NewEvent(name, feed.PublicPath(rel), items)
	if err := j.Publisher.Publish(ctx, ev); err != nil {
		j.log().Warn("publish feed event", slog.String("feed", name), slog.Any("err", err))
	}
}

// HomepageJob regenerates homepage.json.
type HomepageJob struct {
	FeedJob
}

// Run collects the active and recent posts of every source for the last
// Window and rewrites homepage.json when its set of titles changed.
func (j *HomepageJob) Run(ctx context.Context) error {
	log := j.log()
	end := j.now()
	start := end.Add(-j.Window)
	log.Info("collecting homepage posts",
		slog.String("start", start.Format(time.DateOnly)),
		slog.String("end", end.Format(time.DateOnly)),
	)

	var recent, active []models.Post
	for _, domain := range j.Sources {
		all, window, err := fetchSource(ctx, j.Source, j.Fetch, domain, start, end)
		if err != nil {
			return err
		}
		devName := processing.DevName(domain)
		log.Info("posts received", slog.String("dev_name", devName), slog.Int("count", len(window)))

		seen := dedupe.NewSet()
		active = append(active, SelectActive(window, all, domain, j.Selection, seen)...)
		log.Info("active posts collected", slog.Int("count", len(active)))

		recent = append(recent, SelectRecent(window, all, domain, j.Selection, seen, log)...)
		log.Info("recent posts collected", slog.Int("count", len(recent)))
	}

	existing, err := j.Store.HomepageTitles(ctx, log)
	if err != nil {
		return err
	}
	if postTitles(recent, active).Equal(existing) {
		log.Info("no change in recent posts, homepage left as is")
		return nil
	}
	log.Info("changes found in recent posts",
		slog.Int("active", len(active)),
		slog.Int("recent", len(recent)),
	)

	var written bool
	err = j.Retry.Do(ctx, "write homepage", func(ctx context.Context) error {
		var err error
		written, err = j.write(ctx, recent, active)
		return err
	})
	if err != nil {
		return err
	}
	if written {
		j.publish(ctx, "homepage", feed.HomepageFile, len(recent)+len(active))
	}
	return nil
}

func (j *HomepageJob) write(ctx context.Context, recent, active []models.Post) (bool, error) {
	log := j.log()
	if len(recent) == 0 && len(active) == 0 {
		log.Error("data list empty, nothing to write")
		return false, nil
	}

	header, err := j.Builder.RecentSummary(ctx, recent)
	if err != nil {
		return false, err
	}
	recentEntries, err := j.Builder.Entries(ctx, recent, false)
	if err != nil {
		return false, err
	}
	activeEntries, err := j.Builder.Entries(ctx, active, true)
	if err != nil {
		return false, err
	}

	page := feed.Homepage{
		HeaderSummary: header,
		RecentPosts:   recentEntries,
		ActivePosts:   activeEntries,
	}
	if err := j.Store.WriteJSON(ctx, feed.HomepageFile, page); err != nil {
		return false, fmt.Errorf("save homepage: %w", err)
	}
	log.Info("saved file", slog.String("path", j.Store.URL(feed.HomepageFile)))
	return true, nil
}
