package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DeafMist/list-digest/internal/dedupe"
	"github.com/DeafMist/list-digest/internal/feed"
	"github.com/DeafMist/list-digest/internal/models"
	"github.com/DeafMist/list-digest/internal/processing"
)

// NewsletterJob regenerates newsletter.json.
type NewsletterJob struct {
	FeedJob
}

// Run covers the Window ending yesterday: the busiest threads and every
// thread started in it. newsletter.json is rewritten when its set of titles
// changed.
func (j *NewsletterJob) Run(ctx context.Context) error {
	log := j.log()
	now := j.now()
	start := now.Add(-j.Window)
	end := now.AddDate(0, 0, -1)
	log.Info("gathering newsletter posts",
		slog.String("start", start.Format(time.DateOnly)),
		slog.String("end", end.Format(time.DateOnly)),
	)

	var active, started []models.Post
	for _, domain := range j.Sources {
		all, window, err := fetchSource(ctx, j.Source, j.Fetch, domain, start, end)
		if err != nil {
			return err
		}
		log.Info("posts received",
			slog.String("dev_name", processing.DevName(domain)),
			slog.Int("count", len(window)),
		)

		active = append(active, SelectActive(window, all, domain, j.Selection, dedupe.NewSet())...)
		log.Info("active posts collected", slog.Int("count", len(active)))

		started = append(started, NewThreads(window, all, domain)...)
		log.Info("new threads started", slog.Int("count", len(started)))
	}

	existing, err := j.Store.NewsletterTitles(ctx, log)
	if err != nil {
		return err
	}
	if postTitles(active, started).Equal(existing) {
		log.Info("no change in the posts, newsletter left as is")
		return nil
	}
	log.Info("changes found in newsletter posts",
		slog.Int("active", len(active)),
		slog.Int("new_threads", len(started)),
	)

	var written bool
	err = j.Retry.Do(ctx, "write newsletter", func(ctx context.Context) error {
		var err error
		written, err = j.write(ctx, started, active)
		return err
	})
	if err != nil {
		return err
	}
	if written {
		j.publish(ctx, "newsletter", feed.NewsletterFile, len(started)+len(active))
	}
	return nil
}

func (j *NewsletterJob) write(ctx context.Context, started, active []models.Post) (bool, error) {
	log := j.log()
	if len(started) == 0 && len(active) == 0 {
		log.Error("data list empty, nothing to write")
		return false, nil
	}

	summary, err := j.Builder.RecentSummary(ctx, started)
	if err != nil {
		return false, err
	}
	newEntries, err := j.Builder.Entries(ctx, started, true)
	if err != nil {
		return false, err
	}
	activeEntries, err := j.Builder.Entries(ctx, active, true)
	if err != nil {
		return false, err
	}

	page := feed.Newsletter{
		Summary:     summary,
		NewThreads:  newEntries,
		ActivePosts: activeEntries,
	}
	if err := j.Store.WriteJSON(ctx, feed.NewsletterFile, page); err != nil {
		return false, fmt.Errorf("save newsletter: %w", err)
	}
	log.Info("saved file", slog.String("path", j.Store.URL(feed.NewsletterFile)))
	return true, nil
}
