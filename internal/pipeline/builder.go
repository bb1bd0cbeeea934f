package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DeafMist/list-digest/internal/feed"
	"github.com/DeafMist/list-digest/internal/models"
	"github.com/DeafMist/list-digest/internal/processing"
)

// bulletCount is the number of sentences in an entry summary.
const bulletCount = 3

// Builder renders posts into feed entries, preferring the summaries already
// stored in the per-post Atom files over fresh model calls.
type Builder struct {
	store *feed.Store
	sum   Summarizer
	log   *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(store *feed.Store, sum Summarizer, log *slog.Logger) *Builder {
	return &Builder{store: store, sum: sum, log: discardLogger(log)}
}

// Entry renders an annotated post. Active posts link to the thread-level
// combined file when one exists.
func (b *Builder) Entry(ctx context.Context, post models.Post, active bool) (feed.Entry, error) {
	published := post.Published()
	rel := feed.PostPath(post.DevName, published, post.ID, post.Title)

	filePath := rel
	if active {
		combined := feed.CombinedPath(post.DevName, published, post.Title)
		ok, err := b.store.Exists(ctx, combined)
		if err != nil {
			return feed.Entry{}, err
		}
		if ok {
			filePath = combined
		}
	}

	summary, err := b.postSummary(ctx, post, rel)
	if err != nil {
		return feed.Entry{}, err
	}
	bullets, err := b.sum.Bullets(ctx, summary, bulletCount)
	if err != nil {
		return feed.Entry{}, fmt.Errorf("bullets for %q: %w", post.Title, err)
	}

	contributors := post.Contributors
	if contributors == nil {
		contributors = []string{}
	}
	return feed.Entry{
		ID:           processing.ShortID(post.ID),
		Title:        post.Title,
		Link:         post.URL,
		Authors:      post.Authors,
		PublishedAt:  FormatPublished(published),
		Summary:      bullets,
		NThreads:     post.NThreads,
		DevName:      post.DevName,
		Contributors: contributors,
		FilePath:     feed.PublicPath(filePath),
	}, nil
}

// Entries renders every post in order.
func (b *Builder) Entries(ctx context.Context, posts []models.Post, active bool) ([]feed.Entry, error) {
	out := make([]feed.Entry, 0, len(posts))
	for _, p := range posts {
		e, err := b.Entry(ctx, p, active)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// RecentSummary writes the header paragraph above a list of posts from the
// author-labelled summary of each of them.
func (b *Builder) RecentSummary(ctx context.Context, posts []models.Post) (string, error) {
	if len(posts) == 0 {
		return "", nil
	}
	b.log.Info("working on recent posts summary", slog.Int("posts", len(posts)))

	var sb strings.Builder
	for _, p := range posts {
		rel := feed.PostPath(p.DevName, p.Published(), p.ID, p.Title)
		stored, found, err := b.store.ReadSummary(ctx, rel)
		if err != nil {
			return "", err
		}
		if found {
			sb.WriteString(stored)
			continue
		}
		b.log.Warn("no xml file found", slog.String("path", b.store.URL(rel)))

		body, err := b.sum.Summarize(ctx, processing.PreprocessEmail(p.Body))
		if err != nil {
			return "", fmt.Errorf("summarize %q: %w", p.Title, err)
		}
		fmt.Fprintf(&sb, "%s:%s\n", strings.Join(p.Authors, ", "), body)
	}

	combined, err := b.sum.Summarize(ctx, sb.String())
	if err != nil {
		return "", fmt.Errorf("summarize recent posts: %w", err)
	}
	header, err := b.sum.HeaderSummary(ctx, combined)
	if err != nil {
		return "", fmt.Errorf("header summary: %w", err)
	}
	return header, nil
}

// postSummary returns the Atom summary of post at rel, summarizing the body
// when there is none.
func (b *Builder) postSummary(ctx context.Context, post models.Post, rel string) (string, error) {
	stored, found, err := b.store.ReadSummary(ctx, rel)
	if err != nil {
		return "", err
	}
	if found && strings.TrimSpace(stored) != "" {
		return stored, nil
	}
	if !found {
		b.log.Warn("no xml file found", slog.String("path", b.store.URL(rel)))
	}

	summary, err := b.sum.Summarize(ctx, processing.PreprocessEmail(post.Body))
	if err != nil {
		return "", fmt.Errorf("summarize %q: %w", post.Title, err)
	}
	return summary, nil
}
