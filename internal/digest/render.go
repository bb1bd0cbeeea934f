package digest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/DeafMist/list-digest/internal/archive"
	"github.com/DeafMist/list-digest/internal/models"
)

var emailColumns = []string{"timestamp", "author", "subject", "email", "email_url", "tokens"}

var threadColumns = []string{
	"date", "subject", "num_replies", "authors", "urls",
	"generated_summaries", "consolidated_title", "consolidated_summary",
}

// WriteEmailsCSV writes one row per scraped email.
func WriteEmailsCSV(w io.Writer, emails []models.Email) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(emailColumns); err != nil {
		return err
	}
	for _, e := range emails {
		row := []string{
			e.Timestamp.UTC().Format(archive.TimestampLayout),
			e.Author,
			e.Subject,
			e.Body,
			e.URL,
			strconv.Itoa(e.Tokens),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteThreadsCSV writes one row per thread digest. List columns are JSON
// arrays.
func WriteThreadsCSV(w io.Writer, threads []models.ThreadDigest) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(threadColumns); err != nil {
		return err
	}
	for _, d := range threads {
		lists := make([]string, 0, 3)
		for _, l := range [][]string{d.Authors, d.URLs, d.GeneratedSummaries} {
			raw, err := json.Marshal(l)
			if err != nil {
				return fmt.Errorf("encode list: %w", err)
			}
			lists = append(lists, string(raw))
		}
		row := []string{
			d.Date,
			d.Subject,
			strconv.Itoa(d.NumReplies),
			lists[0],
			lists[1],
			lists[2],
			d.ConsolidatedTitle,
			d.ConsolidatedSummary,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var newsletterTmpl = template.Must(template.New("newsletter").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
</head>
<body>
<h1 style="text-align:center; font-family:verdana">{{.Title}}</h1>
{{range .Threads}}<hr style="border-top: dotted 2px;">
<h2 style="text-align:center; font-family:verdana;">{{.Subject}}</h2>
<b>Date: </b><i>{{.Date}}</i>
<p>Number of replies: {{.NumReplies}}</p>
<h3 style="text-align:center; font-family:verdana; color:#282828;">{{.ConsolidatedTitle}}</h3>
<p>{{.ConsolidatedSummary}}</p>
<b>References:</b>
<ul>
{{- $thread := .}}{{range $i, $url := .URLs}}
<li>{{index $thread.Authors $i}}: <a href="{{$url}}">{{$thread.Subject}}</a></li>
{{- end}}
</ul>
{{end}}</body>
</html>
`))

// WriteHTML renders the newsletter page.
func WriteHTML(w io.Writer, title string, threads []models.ThreadDigest) error {
	return newsletterTmpl.Execute(w, struct {
		Title   string
		Threads []models.ThreadDigest
	}{Title: title, Threads: threads})
}
