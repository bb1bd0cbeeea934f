package processing

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const nextPartMarker = "-------------- next part --------------"

var (
	whitespace    = regexp.MustCompile(`\s+`)
	nonAlnum      = regexp.MustCompile(`[^A-Za-z0-9]+`)
	digits        = regexp.MustCompile(`\d`)
	sentenceSplit = regexp.MustCompile(`[.!?]+(\s+|$)`)
	letterOrDigit = regexp.MustCompile(`[\p{L}\p{N}]`)
	dateWord      = regexp.MustCompile(`(?i)\b(mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun|monday|tuesday|wednesday|thursday|friday|saturday|sunday|jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec|january|february|march|april|june|july|august|september|october|november|december)\b`)
)

var monthFolders = map[time.Month]string{
	time.January:   "Jan",
	time.February:  "Feb",
	time.March:     "March",
	time.April:     "April",
	time.May:       "May",
	time.June:      "June",
	time.July:      "July",
	time.August:    "Aug",
	time.September: "Sept",
	time.October:   "Oct",
	time.November:  "Nov",
	time.December:  "Dec",
}

// NormalizeText squeezes whitespace and removes the punctuation debris left
// behind once quoted text has been stripped from an email.
func NormalizeText(s string) string {
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	s = strings.ReplaceAll(s, ". ,", "")
	s = strings.ReplaceAll(s, "..", ".")
	s = strings.ReplaceAll(s, ". .", ".")
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "#", "")
	return strings.TrimSpace(s)
}

// PreprocessEmail drops attachments, quoted replies, attribution lines and
// signatures from a raw message body and returns the normalized remainder.
func PreprocessEmail(body string) string {
	body, _, _ = strings.Cut(body, nextPartMarker)

	kept := make([]string, 0, 32)
	for _, line := range strings.Split(body, "\n") {
		if isAttribution(line) {
			continue
		}
		if line == "" || strings.HasPrefix(line, ">") {
			continue
		}
		if strings.HasPrefix(line, "-- ") || strings.HasPrefix(line, "[") || strings.HasPrefix(line, "_____") {
			continue
		}
		kept = append(kept, line)
	}

	return NormalizeText(strings.Join(kept, "\n"))
}

func isAttribution(line string) bool {
	if strings.HasPrefix(line, "On") {
		probe := digits.ReplaceAllString(strings.ReplaceAll(line, "-", " "), " ")
		if dateWord.MatchString(probe) {
			return true
		}
	}
	switch {
	case strings.HasSuffix(line, "> wrote:"):
		return true
	case strings.HasPrefix(line, "Le "):
		return true
	case strings.HasSuffix(line, "?crit :"):
		return true
	}
	return false
}

// CleanTitle turns a thread title into a file-name friendly slug.
func CleanTitle(title string) string {
	return nonAlnum.ReplaceAllString(title, "-")
}

// ShortID returns the trailing dash-separated part of a document id.
func ShortID(id string) string {
	if i := strings.LastIndex(id, "-"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// CountSentences returns the number of sentences in text.
func CountSentences(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	count := 0
	for _, part := range sentenceSplit.Split(text, -1) {
		if letterOrDigit.MatchString(part) {
			count++
		}
	}
	return count
}

// IsBodyLong reports whether the cleaned body has more than threshold sentences.
func IsBodyLong(body string, threshold int) bool {
	return CountSentences(PreprocessEmail(body)) > threshold
}

// DevName derives the list name from its archive URL, e.g.
// https://lists.linuxfoundation.org/pipermail/bitcoin-dev/ -> bitcoin-dev.
func DevName(domain string) string {
	trimmed := strings.TrimRight(domain, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// MonthFolder names the per-month directory a post is filed under.
func MonthFolder(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s_%d", monthFolders[t.Month()], t.Year())
}
