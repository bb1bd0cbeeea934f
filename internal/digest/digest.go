// Package digest groups a week of scraped emails into threads and renders
// the weekly newsletter.
package digest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/DeafMist/list-digest/internal/archive"
	"github.com/DeafMist/list-digest/internal/models"
)

// Summarizer is the model-backed text generation a digest needs.
type Summarizer interface {
	Summarize(ctx context.Context, body string) (string, error)
	Consolidate(ctx context.Context, summaries []string) (string, error)
	Title(ctx context.Context, summaries string) (string, error)
}

// Builder turns emails into thread digests.
type Builder struct {
	sum Summarizer
	log *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(sum Summarizer, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{sum: sum, log: log}
}

// GroupBySubject buckets emails by subject. Subjects come out sorted and
// every thread is ordered by timestamp.
func GroupBySubject(emails []models.Email) [][]models.Email {
	bySubject := make(map[string][]models.Email)
	for _, e := range emails {
		bySubject[e.Subject] = append(bySubject[e.Subject], e)
	}

	subjects := make([]string, 0, len(bySubject))
	for s := range bySubject {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	out := make([][]models.Email, 0, len(subjects))
	for _, s := range subjects {
		thread := bySubject[s]
		sort.SliceStable(thread, func(i, j int) bool {
			return thread[i].Timestamp.Before(thread[j].Timestamp)
		})
		out = append(out, thread)
	}
	return out
}

// Build summarizes every thread found in emails.
func (b *Builder) Build(ctx context.Context, emails []models.Email) ([]models.ThreadDigest, error) {
	groups := GroupBySubject(emails)
	b.log.Info("threads found", slog.Int("count", len(groups)))

	out := make([]models.ThreadDigest, 0, len(groups))
	for _, thread := range groups {
		d, err := b.Thread(ctx, thread)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Thread summarizes one time-ordered thread: a summary per message, then a
// consolidated summary and a title over all of them.
func (b *Builder) Thread(ctx context.Context, thread []models.Email) (models.ThreadDigest, error) {
	if len(thread) == 0 {
		return models.ThreadDigest{}, fmt.Errorf("empty thread")
	}
	first := thread[0]
	b.log.Info("working on subject", slog.String("subject", first.Subject), slog.Int("messages", len(thread)))

	d := models.ThreadDigest{
		Date:       first.Timestamp.UTC().Format(archive.TimestampLayout),
		Subject:    first.Subject,
		NumReplies: len(thread),
	}
	for _, e := range thread {
		s, err := b.sum.Summarize(ctx, e.Body)
		if err != nil {
			return models.ThreadDigest{}, fmt.Errorf("summarize %s: %w", e.URL, err)
		}
		d.Authors = append(d.Authors, e.Author)
		d.URLs = append(d.URLs, e.URL)
		d.GeneratedSummaries = append(d.GeneratedSummaries, s)
	}

	var err error
	d.ConsolidatedSummary, err = b.sum.Consolidate(ctx, d.GeneratedSummaries)
	if err != nil {
		return models.ThreadDigest{}, fmt.Errorf("consolidate %q: %w", first.Subject, err)
	}
	d.ConsolidatedTitle, err = b.sum.Title(ctx, strings.Join(d.GeneratedSummaries, "\n"))
	if err != nil {
		return models.ThreadDigest{}, fmt.Errorf("title %q: %w", first.Subject, err)
	}
	return d, nil
}
