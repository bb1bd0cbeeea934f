package feed

import (
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	return s, dir
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, dir := newStore(t)

	ok, err := s.Exists(ctx, "bitcoin-dev/Aug_2023/a.xml")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Write(ctx, "bitcoin-dev/Aug_2023/a.xml", []byte("hello")))

	ok, err = s.Exists(ctx, "bitcoin-dev/Aug_2023/a.xml")
	require.NoError(t, err)
	require.True(t, ok)

	data, err := s.Read(ctx, "bitcoin-dev/Aug_2023/a.xml")
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	onDisk, err := os.ReadFile(filepath.Join(dir, "bitcoin-dev", "Aug_2023", "a.xml"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(onDisk))
}

func TestNewStoreRejectsEmptyRoot(t *testing.T) {
	_, err := NewStore("")
	require.Error(t, err)
}

func TestPaths(t *testing.T) {
	published := time.Date(2023, time.September, 3, 10, 0, 0, 0, time.UTC)

	require.Equal(t, "bitcoin-dev/Sept_2023/0001_Proposal-OP-CAT-.xml",
		PostPath("bitcoin-dev", published, "bitcoin-dev-0001", "Proposal: OP_CAT?"))
	require.Equal(t, "lightning-dev/Sept_2023/combined_Splicing.xml",
		CombinedPath("lightning-dev", published, "Splicing"))
	require.Equal(t, "static/lightning-dev/Sept_2023/combined_Splicing.xml",
		PublicPath(CombinedPath("lightning-dev", published, "Splicing")))
}

func TestEncodeAtom(t *testing.T) {
	data := FeedData{
		ID:        "bitcoin-dev-0001",
		Title:     "Covenants & vaults",
		Authors:   []string{"Alice Smith 2023-08-10 18:56:07+00:00", "Bob"},
		URL:       "https://lists.example.org/0001.html",
		CreatedAt: "2023-08-10T18:56:07.000Z",
		Summary:   "A <short> summary.",
	}
	out, err := EncodeAtom(data, time.Date(2023, 8, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	text := string(out)
	require.True(t, strings.HasPrefix(text, "<?xml"))
	require.Contains(t, text, `<feed xmlns="http://www.w3.org/2005/Atom">`)
	require.Contains(t, text, "<title>Covenants &amp; vaults</title>")
	require.Contains(t, text, `<link href="https://lists.example.org/0001.html" rel="alternate"></link>`)
	require.Contains(t, text, "<published>2023-08-10T18:56:07.000Z</published>")
	require.Contains(t, text, "<updated>2023-08-11T00:00:00Z</updated>")
	require.Contains(t, text, "<summary>A &lt;short&gt; summary.</summary>")

	var doc atomFeed
	require.NoError(t, xml.Unmarshal(out, &doc))
	require.Len(t, doc.Authors, 2)
	require.Len(t, doc.Entries, 1)
	require.Equal(t, data.URL, doc.Entries[0].ID)
}

func TestReadSummary(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	_, found, err := s.ReadSummary(ctx, "bitcoin-dev/Aug_2023/missing.xml")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.WritePost(ctx, "bitcoin-dev/Aug_2023/0001_x.xml", FeedData{
		ID:        "bitcoin-dev-0001",
		Title:     "x",
		Authors:   []string{"Alice Smith 2023-08-10 18:56:07+00:00"},
		URL:       "https://lists.example.org/0001.html",
		CreatedAt: "2023-08-10T18:56:07.000Z",
		Summary:   "Alice proposes a covenant opcode.",
	}))

	got, found, err := s.ReadSummary(ctx, "bitcoin-dev/Aug_2023/0001_x.xml")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Alice Smith:Alice proposes a covenant opcode.\n", got)
}

func TestAuthorLabel(t *testing.T) {
	require.Equal(t, "Alice Smith", authorLabel("Alice Smith 2023-08-10 18:56:07+00:00"))
	require.Equal(t, "", authorLabel("Bob"))
	require.Equal(t, "", authorLabel("a b"))
}

func TestJSONFeeds(t *testing.T) {
	ctx := context.Background()
	s, dir := newStore(t)

	titles, err := s.HomepageTitles(ctx, discard())
	require.NoError(t, err)
	require.Zero(t, titles.Len())

	page := Homepage{
		HeaderSummary: "Header & more",
		RecentPosts:   []Entry{{ID: "1", Title: "Covenants", Authors: []string{"Alice"}, Contributors: []string{}}},
		ActivePosts:   []Entry{{ID: "2", Title: "Fee bumping", Authors: []string{"Bob"}, Contributors: []string{"Carol"}}},
	}
	require.NoError(t, s.WriteJSON(ctx, HomepageFile, page))

	raw, err := os.ReadFile(filepath.Join(dir, HomepageFile))
	require.NoError(t, err)
	require.Contains(t, string(raw), "\n    \"header_summary\": \"Header & more\"")
	require.Contains(t, string(raw), `"contributors": []`)

	titles, err = s.HomepageTitles(ctx, discard())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Covenants", "Fee bumping"}, titles.Values())

	news := Newsletter{
		Summary:     "Weekly",
		NewThreads:  []Entry{{Title: "Silent payments"}},
		ActivePosts: []Entry{{Title: "Covenants"}},
	}
	require.NoError(t, s.WriteJSON(ctx, NewsletterFile, news))
	titles, err = s.NewsletterTitles(ctx, discard())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Silent payments", "Covenants"}, titles.Values())

	raw, err = os.ReadFile(filepath.Join(dir, NewsletterFile))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"summary_of_threads_started_this_week": "Weekly"`)
}

func TestReadJSONRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	require.NoError(t, s.Write(ctx, HomepageFile, []byte("{not json")))

	_, err := s.HomepageTitles(ctx, discard())
	require.ErrorContains(t, err, "decode homepage.json")
}
