package feed

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

type atomFeed struct {
	XMLName   xml.Name      `xml:"http://www.w3.org/2005/Atom feed"`
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Updated   string        `xml:"updated"`
	Authors   []atomPerson  `xml:"author"`
	Links     []atomLink    `xml:"link"`
	Generator atomGenerator `xml:"generator"`
	Entries   []atomEntry   `xml:"entry"`
}

type atomPerson struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
}

type atomGenerator struct {
	Value string `xml:",chardata"`
}

type atomEntry struct {
	ID        string     `xml:"id"`
	Title     string     `xml:"title"`
	Updated   string     `xml:"updated"`
	Links     []atomLink `xml:"link"`
	Summary   string     `xml:"summary"`
	Published string     `xml:"published"`
}

// FeedData is the content of a single-post Atom document.
type FeedData struct {
	ID        string
	Title     string
	Authors   []string
	URL       string
	CreatedAt string
	Summary   string
}

// EncodeAtom renders data as an indented Atom document stamped with updated.
func EncodeAtom(data FeedData, updated time.Time) ([]byte, error) {
	stamp := updated.UTC().Format(time.RFC3339)
	doc := atomFeed{
		ID:        data.ID,
		Title:     data.Title,
		Updated:   stamp,
		Links:     []atomLink{{Href: data.URL, Rel: "alternate"}},
		Generator: atomGenerator{Value: "list-digest"},
		Entries: []atomEntry{{
			ID:        data.URL,
			Title:     data.Title,
			Updated:   stamp,
			Links:     []atomLink{{Href: data.URL, Rel: "alternate"}},
			Summary:   data.Summary,
			Published: data.CreatedAt,
		}},
	}
	for _, a := range data.Authors {
		doc.Authors = append(doc.Authors, atomPerson{Name: a})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode atom: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// WritePost stores data as an Atom document at rel.
func (s *Store) WritePost(ctx context.Context, rel string, data FeedData) error {
	out, err := EncodeAtom(data, time.Now())
	if err != nil {
		return err
	}
	return s.Write(ctx, rel, out)
}

// ReadSummary loads the Atom document at rel and returns it as one
// "<authors>:<summaries>\n" line. The author names end with a two-word date
// suffix in the index, which is dropped. found is false when rel does not
// exist.
func (s *Store) ReadSummary(ctx context.Context, rel string) (summary string, found bool, err error) {
	ok, err := s.Exists(ctx, rel)
	if err != nil || !ok {
		return "", false, err
	}
	raw, err := s.Read(ctx, rel)
	if err != nil {
		return "", false, err
	}

	var doc atomFeed
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", false, fmt.Errorf("decode atom %s: %w", rel, err)
	}

	summaries := make([]string, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		summaries = append(summaries, e.Summary)
	}
	names := make([]string, 0, len(doc.Authors))
	for _, a := range doc.Authors {
		names = append(names, a.Name)
	}

	return authorLabel(strings.Join(names, "\n")) + ":" + strings.Join(summaries, "\n") + "\n", true, nil
}

// authorLabel drops the last two space-separated words.
func authorLabel(names string) string {
	words := strings.Split(names, " ")
	if len(words) <= 2 {
		return ""
	}
	return strings.Join(words[:len(words)-2], " ")
}
