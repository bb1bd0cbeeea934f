package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/DeafMist/list-digest/internal/dedupe"
)

// File names of the generated JSON feeds, relative to the static root.
const (
	HomepageFile   = "homepage.json"
	NewsletterFile = "newsletter.json"
)

// Entry is one post as rendered in a JSON feed.
type Entry struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Link         string   `json:"link"`
	Authors      []string `json:"authors"`
	PublishedAt  string   `json:"published_at"`
	Summary      string   `json:"summary"`
	NThreads     int      `json:"n_threads"`
	DevName      string   `json:"dev_name"`
	Contributors []string `json:"contributors"`
	FilePath     string   `json:"file_path"`
}

// Homepage is the content of homepage.json.
type Homepage struct {
	HeaderSummary string  `json:"header_summary"`
	RecentPosts   []Entry `json:"recent_posts"`
	ActivePosts   []Entry `json:"active_posts"`
}

// Titles returns the titles of every entry.
func (h Homepage) Titles() *dedupe.Set {
	return entryTitles(h.RecentPosts, h.ActivePosts)
}

// Newsletter is the content of newsletter.json.
type Newsletter struct {
	Summary     string  `json:"summary_of_threads_started_this_week"`
	NewThreads  []Entry `json:"new_threads_this_week"`
	ActivePosts []Entry `json:"active_posts_this_week"`
}

// Titles returns the titles of every entry.
func (n Newsletter) Titles() *dedupe.Set {
	return entryTitles(n.NewThreads, n.ActivePosts)
}

func entryTitles(lists ...[]Entry) *dedupe.Set {
	set := dedupe.NewSet()
	for _, list := range lists {
		for _, e := range list {
			set.Add(e.Title)
		}
	}
	return set
}

// WriteJSON stores v at rel indented by four spaces.
func (s *Store) WriteJSON(ctx context.Context, rel string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", rel, err)
	}
	return s.Write(ctx, rel, buf.Bytes())
}

// ReadJSON decodes rel into v. found is false when rel does not exist.
func (s *Store) ReadJSON(ctx context.Context, rel string, v any) (found bool, err error) {
	ok, err := s.Exists(ctx, rel)
	if err != nil || !ok {
		return false, err
	}
	raw, err := s.Read(ctx, rel)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", rel, err)
	}
	return true, nil
}

// HomepageTitles returns the titles listed in the current homepage.json. A
// missing file yields an empty set.
func (s *Store) HomepageTitles(ctx context.Context, log *slog.Logger) (*dedupe.Set, error) {
	var page Homepage
	found, err := s.ReadJSON(ctx, HomepageFile, &page)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Warn("no existing feed file found", slog.String("path", s.URL(HomepageFile)))
		return dedupe.NewSet(), nil
	}
	return page.Titles(), nil
}

// NewsletterTitles returns the titles listed in the current newsletter.json.
// A missing file yields an empty set.
func (s *Store) NewsletterTitles(ctx context.Context, log *slog.Logger) (*dedupe.Set, error) {
	var page Newsletter
	found, err := s.ReadJSON(ctx, NewsletterFile, &page)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Warn("no existing feed file found", slog.String("path", s.URL(NewsletterFile)))
		return dedupe.NewSet(), nil
	}
	return page.Titles(), nil
}
