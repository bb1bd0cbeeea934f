package models

import "time"

// Email is one message scraped from a pipermail archive.
type Email struct {
	Timestamp time.Time
	Author    string
	Subject   string
	Body      string
	URL       string
	Tokens    int
}

// ThreadDigest is the generated record for one subject-grouped thread.
type ThreadDigest struct {
	Date                string
	Subject             string
	NumReplies          int
	Authors             []string
	URLs                []string
	GeneratedSummaries  []string
	ConsolidatedTitle   string
	ConsolidatedSummary string
}
