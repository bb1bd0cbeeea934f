// Package archive scrapes messages from a pipermail mailing-list archive.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/DeafMist/list-digest/internal/models"
	"github.com/DeafMist/list-digest/internal/processing"
	"github.com/DeafMist/list-digest/internal/retry"
	"github.com/DeafMist/list-digest/internal/tokenizer"
)

// TimestampLayout is how scraped timestamps are rendered in the digest.
const TimestampLayout = "2006-01-02 15:04:05"

const maxPageSize = 4 << 20

// ErrNoIndex is returned when a month page lacks the message list.
var ErrNoIndex = errors.New("message index not found")

var timestampLayouts = []string{
	"Mon Jan 2 15:04:05 MST 2006",
	"Mon Jan 2 15:04:05 -0700 2006",
	time.RFC1123Z,
	time.RFC1123,
	time.UnixDate,
	time.RFC3339,
	TimestampLayout,
}

// Scraper fetches month indexes and message pages.
type Scraper struct {
	client *http.Client
	retry  retry.Policy
	log    *slog.Logger
}

// New creates a Scraper. A nil client means http.DefaultClient.
func New(client *http.Client, policy retry.Policy, log *slog.Logger) *Scraper {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if policy.Log == nil {
		policy.Log = log
	}
	return &Scraper{client: client, retry: policy, log: log}
}

// MonthURLs returns the month folders worth reading at now: the current one
// and, during the first days of a month, the previous one too.
func MonthURLs(base string, now time.Time) []string {
	base = strings.TrimRight(base, "/")
	now = now.UTC()
	urls := []string{fmt.Sprintf("%s/%s/", base, now.Format("2006-January"))}
	if now.Day() < 7 {
		prev := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC)
		urls = append(urls, fmt.Sprintf("%s/%s/", base, prev.Format("2006-January")))
	}
	return urls
}

// CollectURLs lists the message URLs of the month folders around now.
// Folders that cannot be read are skipped.
func (s *Scraper) CollectURLs(ctx context.Context, base string, now time.Time) ([]string, error) {
	var all []string
	for _, folder := range MonthURLs(base, now) {
		s.log.Info("working on archive folder", slog.String("url", folder))
		doc, err := s.fetch(ctx, folder+"date.html")
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Warn("skip archive folder", slog.String("url", folder), slog.Any("err", err))
			continue
		}
		hrefs, err := messageLinks(doc)
		if err != nil {
			s.log.Warn("skip archive folder", slog.String("url", folder), slog.Any("err", err))
			continue
		}
		for _, h := range hrefs {
			all = append(all, folder+h)
		}
	}
	s.log.Info("fetched urls", slog.Int("count", len(all)))
	return all, nil
}

// Scrape reads one message page.
func (s *Scraper) Scrape(ctx context.Context, url string) (models.Email, error) {
	doc, err := s.fetch(ctx, url)
	if err != nil {
		return models.Email{}, err
	}
	return parseMessage(doc, url)
}

// ScrapeAll reads every message in urls, in order.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string) ([]models.Email, error) {
	out := make([]models.Email, 0, len(urls))
	for _, u := range urls {
		e, err := s.Scrape(ctx, u)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// PastWeek keeps the emails sent within window before now and attaches
// their token counts.
func PastWeek(emails []models.Email, now time.Time, window time.Duration, tok tokenizer.Tokenizer) []models.Email {
	from := now.Add(-window)
	var out []models.Email
	for _, e := range emails {
		if e.Timestamp.IsZero() || e.Timestamp.Before(from) || e.Timestamp.After(now) {
			continue
		}
		e.Tokens = tok.Count(e.Body)
		out = append(out, e)
	}
	return out
}

func (s *Scraper) fetch(ctx context.Context, url string) (*html.Node, error) {
	return retry.Value(ctx, s.retry, "fetch "+url, func(ctx context.Context) (*html.Node, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return html.Parse(io.LimitReader(resp.Body, maxPageSize))
	})
}

// messageLinks returns the hrefs of the second list on a pipermail month
// page, which lists the messages by date.
func messageLinks(doc *html.Node) ([]string, error) {
	lists := findAll(doc, "ul")
	if len(lists) < 2 {
		return nil, ErrNoIndex
	}
	var hrefs []string
	for _, li := range findAll(lists[1], "li") {
		a := find(li, "a")
		if a == nil {
			continue
		}
		if href := strings.TrimSpace(attr(a, "href")); href != "" {
			hrefs = append(hrefs, href)
		}
	}
	return hrefs, nil
}

func parseMessage(doc *html.Node, url string) (models.Email, error) {
	pick := func(tag string) (string, error) {
		n := find(doc, tag)
		if n == nil {
			return "", fmt.Errorf("parse %s: no <%s> element", url, tag)
		}
		return text(n), nil
	}

	subject, err := pick("h1")
	if err != nil {
		return models.Email{}, err
	}
	author, err := pick("b")
	if err != nil {
		return models.Email{}, err
	}
	stamp, err := pick("i")
	if err != nil {
		return models.Email{}, err
	}
	body, err := pick("pre")
	if err != nil {
		return models.Email{}, err
	}

	ts, err := ParseTimestamp(stamp)
	if err != nil {
		return models.Email{}, fmt.Errorf("parse %s: %w", url, err)
	}

	return models.Email{
		Timestamp: ts,
		Author:    strings.TrimSpace(author),
		Subject:   processing.NormalizeText(subject),
		Body:      processing.PreprocessEmail(body),
		URL:       url,
	}, nil
}

// ParseTimestamp reads a pipermail date such as "Mon Aug  7 10:11:12 UTC 2023"
// and returns it in UTC truncated to the second.
func ParseTimestamp(raw string) (time.Time, error) {
	squeezed := strings.Join(strings.Fields(raw), " ")
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, squeezed); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func find(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// text concatenates the text below n, preserving line breaks.
func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
