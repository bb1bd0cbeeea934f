// Package threads reconstructs mailing-list conversations from flat posts
// and ranks them for the feeds.
package threads

import (
	"sort"
	"time"

	"github.com/DeafMist/list-digest/internal/dedupe"
	"github.com/DeafMist/list-digest/internal/models"
)

// Stats describes one thread: how many posts it has and who started them.
type Stats struct {
	Count        int
	Contributors []string
}

// StatsFor counts the posts sharing title and domain and collects the
// sorted unique first authors among them.
func StatsFor(title, domain string, all []models.Post) Stats {
	seen := dedupe.NewSet()
	var count int
	for _, p := range all {
		if p.Title != title || p.Domain != domain {
			continue
		}
		count++
		if a := p.FirstAuthor(); a != "" {
			seen.Add(a)
		}
	}
	return Stats{Count: count, Contributors: seen.Sorted()}
}

// OriginalPost returns the earliest post of the thread. ok is false when no
// post matches.
func OriginalPost(title, domain string, all []models.Post) (post models.Post, ok bool) {
	var first time.Time
	for _, p := range all {
		if p.Title != title || p.Domain != domain {
			continue
		}
		t := p.Published()
		if !ok || t.Before(first) {
			post, first, ok = p, t, true
		}
	}
	return post, ok
}

// Annotate attaches thread statistics to post. The post's own authors are
// removed from the contributors.
func Annotate(post models.Post, stats Stats, devName string) models.Post {
	contributors := dedupe.NewSet(stats.Contributors...)
	for _, a := range post.Authors {
		contributors.Remove(a)
	}
	post.NThreads = stats.Count
	post.Contributors = contributors.Values()
	post.DevName = devName
	return post
}

// TopActive orders results by thread size, largest first, and returns the
// first topN posts with distinct titles. Posts keep their relative order
// when sizes tie. NThreads is set on every returned post.
func TopActive(results []models.Post, topN int, all []models.Post) []models.Post {
	counts := make(map[string]int)
	for _, p := range results {
		if _, ok := counts[p.Title]; !ok {
			counts[p.Title] = StatsFor(p.Title, p.Domain, all).Count
		}
	}

	sorted := make([]models.Post, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return counts[sorted[i].Title] > counts[sorted[j].Title]
	})

	out := uniqueTitles(sorted, topN)
	for i := range out {
		out[i].NThreads = counts[out[i].Title]
	}
	return out
}

// TopRecent orders results by creation time, newest first, and returns the
// first topN posts with distinct titles.
func TopRecent(results []models.Post, topN int) []models.Post {
	sorted := make([]models.Post, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Published().After(sorted[j].Published())
	})
	return uniqueTitles(sorted, topN)
}

func uniqueTitles(posts []models.Post, topN int) []models.Post {
	seen := dedupe.NewSet()
	out := make([]models.Post, 0, topN)
	for _, p := range posts {
		if len(out) >= topN {
			break
		}
		if seen.Add(p.Title) {
			out = append(out, p)
		}
	}
	return out
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Month time.Month
	Year  int
}

// MonthGroup is the posts created in one calendar month.
type MonthGroup struct {
	Key   MonthKey
	Posts []models.Post
}

// GroupByMonth buckets posts by their creation month. Groups are ordered by
// month and then year; posts keep their input order inside a group. Posts
// with an unparseable timestamp are dropped.
func GroupByMonth(posts []models.Post) []MonthGroup {
	index := make(map[MonthKey]int)
	var groups []MonthGroup
	for _, p := range posts {
		t := p.Published()
		if t.IsZero() {
			continue
		}
		key := MonthKey{Month: t.Month(), Year: t.Year()}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, MonthGroup{Key: key})
		}
		groups[i].Posts = append(groups[i].Posts, p)
	}

	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].Key, groups[j].Key
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Year < b.Year
	})
	return groups
}
