package threads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/list-digest/internal/models"
)

const domain = "https://lists.linuxfoundation.org/pipermail/bitcoin-dev/"

func post(id, title, author, createdAt string) models.Post {
	return models.Post{
		ID:        id,
		Title:     title,
		Domain:    domain,
		URL:       "https://example.org/" + id,
		Authors:   []string{author},
		CreatedAt: createdAt,
		Type:      models.TypeReply,
	}
}

func corpus() []models.Post {
	return []models.Post{
		post("1", "Covenants", "Bob", "2023-08-07T10:00:00.000Z"),
		post("2", "Covenants", "Alice", "2023-08-05T09:00:00.000Z"),
		post("3", "Covenants", "Carol", "2023-08-06T09:00:00.000Z"),
		post("4", "Covenants", "Bob", "2023-08-08T09:00:00.000Z"),
		post("5", "Fee bumping", "Dave", "2023-08-09T12:00:00.000Z"),
		post("6", "Fee bumping", "Erin", "2023-08-09T13:00:00.000Z"),
		post("7", "Silent payments", "Frank", "2023-08-10T08:00:00.000Z"),
	}
}

func TestStatsFor(t *testing.T) {
	stats := StatsFor("Covenants", domain, corpus())
	require.Equal(t, 4, stats.Count)
	require.Equal(t, []string{"Alice", "Bob", "Carol"}, stats.Contributors)

	other := StatsFor("Covenants", "https://lists.example.org/other/", corpus())
	require.Zero(t, other.Count)
	require.Empty(t, other.Contributors)
}

func TestOriginalPost(t *testing.T) {
	op, ok := OriginalPost("Covenants", domain, corpus())
	require.True(t, ok)
	require.Equal(t, "2", op.ID)

	_, ok = OriginalPost("Missing", domain, corpus())
	require.False(t, ok)
}

func TestAnnotateRemovesOwnAuthors(t *testing.T) {
	op, _ := OriginalPost("Covenants", domain, corpus())
	op.Authors = append(op.Authors, "Mallory")

	got := Annotate(op, StatsFor("Covenants", domain, corpus()), "bitcoin-dev")
	require.Equal(t, 4, got.NThreads)
	require.Equal(t, []string{"Bob", "Carol"}, got.Contributors)
	require.Equal(t, "bitcoin-dev", got.DevName)
}

func TestAnnotateLoneAuthorLeavesEmptyContributors(t *testing.T) {
	p := post("7", "Silent payments", "Frank", "2023-08-10T08:00:00.000Z")
	got := Annotate(p, StatsFor(p.Title, domain, corpus()), "bitcoin-dev")
	require.Equal(t, 1, got.NThreads)
	require.NotNil(t, got.Contributors)
	require.Empty(t, got.Contributors)
}

func TestTopActive(t *testing.T) {
	all := corpus()
	results := []models.Post{all[6], all[4], all[0], all[5], all[2]}

	got := TopActive(results, 10, all)
	require.Len(t, got, 3)
	require.Equal(t, "Covenants", got[0].Title)
	require.Equal(t, "1", got[0].ID)
	require.Equal(t, 4, got[0].NThreads)
	require.Equal(t, "Fee bumping", got[1].Title)
	require.Equal(t, "Silent payments", got[2].Title)

	require.Len(t, TopActive(results, 2, all), 2)
	require.Equal(t, "7", results[0].ID, "input must not be reordered")
}

func TestTopRecent(t *testing.T) {
	got := TopRecent(corpus(), 2)
	require.Len(t, got, 2)
	require.Equal(t, "7", got[0].ID)
	require.Equal(t, "6", got[1].ID)

	all := TopRecent(corpus(), 20)
	titles := make([]string, 0, len(all))
	for _, p := range all {
		titles = append(titles, p.Title)
	}
	require.Equal(t, []string{"Silent payments", "Fee bumping", "Covenants"}, titles)
}

func TestGroupByMonth(t *testing.T) {
	posts := []models.Post{
		post("a", "A", "x", "2023-02-01T00:00:00.000Z"),
		post("b", "B", "x", "2022-02-10T00:00:00.000Z"),
		post("c", "C", "x", "2023-01-15T00:00:00.000Z"),
		post("d", "D", "x", "2023-02-20T00:00:00.000Z"),
		post("e", "E", "x", "not a date"),
	}

	groups := GroupByMonth(posts)
	require.Len(t, groups, 3)
	require.Equal(t, MonthKey{Month: time.January, Year: 2023}, groups[0].Key)
	require.Equal(t, MonthKey{Month: time.February, Year: 2022}, groups[1].Key)
	require.Equal(t, MonthKey{Month: time.February, Year: 2023}, groups[2].Key)
	require.Equal(t, "a", groups[2].Posts[0].ID)
	require.Equal(t, "d", groups[2].Posts[1].ID)
}
