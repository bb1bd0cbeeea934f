package models

import (
	"strings"
	"time"
)

// CreatedAtLayout is the timestamp format stored in the mailing-list index.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z"

// PostType values found in the index.
const (
	TypeOriginalPost = "original_post"
	TypeReply        = "reply"
)

// Post represents a single mailing-list message as stored in Elasticsearch.
// NThreads, Contributors and DevName are derived by the pipeline and are
// never read from the index.
type Post struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	BodyType  string   `json:"body_type"`
	Type      string   `json:"type"`
	URL       string   `json:"url"`
	Domain    string   `json:"domain"`
	Authors   []string `json:"authors"`
	CreatedAt string   `json:"created_at"`

	NThreads     int      `json:"n_threads,omitempty"`
	Contributors []string `json:"contributors,omitempty"`
	DevName      string   `json:"dev_name,omitempty"`
}

// Published parses CreatedAt as UTC. The zero time is returned for values
// that match none of the known layouts.
func (p Post) Published() time.Time {
	return ParseTimestamp(p.CreatedAt)
}

// FirstAuthor returns the leading author or "" when the post has none.
func (p Post) FirstAuthor() string {
	if len(p.Authors) == 0 {
		return ""
	}
	return p.Authors[0]
}

// SameRecord reports whether two posts describe the same stored message.
func (p Post) SameRecord(o Post) bool {
	if p.Title != o.Title || p.Domain != o.Domain || p.CreatedAt != o.CreatedAt || p.URL != o.URL {
		return false
	}
	if len(p.Authors) != len(o.Authors) {
		return false
	}
	for i := range p.Authors {
		if p.Authors[i] != o.Authors[i] {
			return false
		}
	}
	return true
}

// ParseTimestamp accepts the index layout and a few looser variants.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	formats := []string{
		CreatedAtLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}

	for _, f := range formats {
		if ts, err := time.Parse(f, raw); err == nil {
			return ts.UTC()
		}
	}

	return time.Time{}
}
