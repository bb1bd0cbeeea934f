package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DeafMist/list-digest/internal/feed"
	"github.com/DeafMist/list-digest/internal/processing"
	"github.com/DeafMist/list-digest/internal/retry"
	"github.com/DeafMist/list-digest/internal/threads"
)

// XMLJob writes one Atom document per post.
type XMLJob struct {
	Source PostSource
	Sum    Summarizer
	Store  *feed.Store
	Log    *slog.Logger
	// Fetch wraps each document-store query.
	Fetch retry.Policy

	Sources []string
	// PerMonthLimit caps how many posts of one month are considered per
	// run; posts whose file already exists count toward it.
	PerMonthLimit int
}

// Run generates the missing Atom files of every source and returns how many
// were written.
func (j *XMLJob) Run(ctx context.Context) (int, error) {
	log := discardLogger(j.Log)

	var written int
	for _, domain := range j.Sources {
		posts, err := fetchAll(ctx, j.Source, j.Fetch, domain)
		if err != nil {
			return written, err
		}
		devName := processing.DevName(domain)
		log.Info("posts received", slog.String("dev_name", devName), slog.Int("count", len(posts)))

		for _, group := range threads.GroupByMonth(posts) {
			log.Info("working on month",
				slog.String("dev_name", devName),
				slog.String("month", group.Key.Month.String()),
				slog.Int("year", group.Key.Year),
			)

			for i, p := range group.Posts {
				if i >= j.PerMonthLimit {
					break
				}
				rel := feed.PostPath(devName, p.Published(), p.ID, p.Title)
				ok, err := j.Store.Exists(ctx, rel)
				if err != nil {
					return written, err
				}
				if ok {
					continue
				}

				summary, err := j.Sum.Summarize(ctx, processing.PreprocessEmail(p.Body))
				if err != nil {
					return written, fmt.Errorf("summarize %q: %w", p.Title, err)
				}
				err = j.Store.WritePost(ctx, rel, feed.FeedData{
					ID:        p.ID,
					Title:     p.Title,
					Authors:   p.Authors,
					URL:       p.URL,
					CreatedAt: p.CreatedAt,
					Summary:   summary,
				})
				if err != nil {
					return written, err
				}
				written++
				log.Info("saved file", slog.String("path", j.Store.URL(rel)))
			}
		}
	}
	return written, nil
}
