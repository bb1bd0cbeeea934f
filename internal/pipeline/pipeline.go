// Package pipeline turns indexed mailing-list posts into the generated feed
// files: per-post Atom documents, homepage.json and newsletter.json.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/DeafMist/list-digest/internal/models"
	"github.com/DeafMist/list-digest/internal/retry"
)

// PostSource is the document index the jobs read from.
type PostSource interface {
	FetchDomain(ctx context.Context, domain string) ([]models.Post, error)
	FetchDomainRange(ctx context.Context, domain string, start, end time.Time) ([]models.Post, error)
}

// Summarizer produces the model-written texts of a feed.
type Summarizer interface {
	Summarize(ctx context.Context, body string) (string, error)
	Bullets(ctx context.Context, summary string, n int) (string, error)
	HeaderSummary(ctx context.Context, recent string) (string, error)
}

// ISO-8601 layouts with a numeric offset, microseconds only when present.
const (
	isoLayout      = "2006-01-02T15:04:05-07:00"
	isoMicroLayout = "2006-01-02T15:04:05.000000-07:00"
)

// FormatPublished renders t in UTC the way the feed consumers expect,
// e.g. 2023-08-10T18:56:07+00:00.
func FormatPublished(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/int(time.Microsecond) != 0 {
		return t.Format(isoMicroLayout)
	}
	return t.Format(isoLayout)
}

func discardLogger(log *slog.Logger) *slog.Logger {
	if log != nil {
		return log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fetchSource loads every post of domain and the posts inside [start, end],
// each under policy. A failed scroll is restarted from the first page.
func fetchSource(ctx context.Context, src PostSource, policy retry.Policy, domain string, start, end time.Time) (all, window []models.Post, err error) {
	all, err = fetchAll(ctx, src, policy, domain)
	if err != nil {
		return nil, nil, err
	}
	window, err = retry.Value(ctx, policy, "fetch "+domain+" window", func(ctx context.Context) ([]models.Post, error) {
		return src.FetchDomainRange(ctx, domain, start, end)
	})
	if err != nil {
		return nil, nil, err
	}
	return all, window, nil
}

func fetchAll(ctx context.Context, src PostSource, policy retry.Policy, domain string) ([]models.Post, error) {
	return retry.Value(ctx, policy, "fetch "+domain, func(ctx context.Context) ([]models.Post, error) {
		return src.FetchDomain(ctx, domain)
	})
}
