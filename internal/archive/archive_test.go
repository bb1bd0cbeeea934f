package archive

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/list-digest/internal/models"
	"github.com/DeafMist/list-digest/internal/retry"
	"github.com/DeafMist/list-digest/internal/testutil"
)

const monthPage = `<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 3.2//EN">
<HTML><HEAD><title>The bitcoin-dev August 2023 Archive by date</title></HEAD>
<BODY>
<h1>August 2023 Archives by date</h1>
<ul><li><b>Messages sorted by:</b> <a href="thread.html#start">[ thread ]</a></li></ul>
<ul>
<LI><A HREF="021801.html">[bitcoin-dev] Covenants </A><A NAME="21801">&nbsp;</A><I>Alice</I>
<LI><A HREF=" 021802.html ">[bitcoin-dev] Covenants </A><A NAME="21802">&nbsp;</A><I>Bob</I>
</ul>
</BODY></HTML>`

const messagePage = `<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 3.2//EN">
<HTML><HEAD><TITLE> [bitcoin-dev] Covenants</TITLE></HEAD>
<BODY BGCOLOR="#ffffff">
<H1>[bitcoin-dev]   Covenants</H1>
<B>Alice Smith</B>
<A HREF="mailto:bitcoin-dev%40lists.example.org" TITLE="[bitcoin-dev] Covenants">alice at example.org</A><BR>
<I>Mon Aug  7 10:11:12 UTC 2023</I>
<P><UL><LI>Next message: <A HREF="021802.html">[bitcoin-dev] Covenants</A></li></UL>
<HR>
<!--beginarticle-->
<PRE>Hi all,
On Sun, Aug 6, 2023 at 9:00 AM Bob &lt;bob at example.org&gt; wrote:
&gt; quoted text
This proposal adds a new opcode.
-------------- next part --------------
An HTML attachment was scrubbed...
</PRE>
</BODY></HTML>`

func noRetry() retry.Policy {
	return retry.Policy{MaxRetries: 1, Sleep: testutil.NoSleep}
}

func TestMonthURLs(t *testing.T) {
	mid := time.Date(2023, time.August, 15, 0, 0, 0, 0, time.UTC)
	require.Equal(t, []string{"https://lists.example.org/pipermail/bitcoin-dev/2023-August/"},
		MonthURLs("https://lists.example.org/pipermail/bitcoin-dev/", mid))

	early := time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)
	require.Equal(t, []string{
		"https://lists.example.org/pipermail/bitcoin-dev/2024-January/",
		"https://lists.example.org/pipermail/bitcoin-dev/2023-December/",
	}, MonthURLs("https://lists.example.org/pipermail/bitcoin-dev", early))

	endOfMarch := time.Date(2023, time.March, 31, 0, 0, 0, 0, time.UTC)
	require.Len(t, MonthURLs("x", endOfMarch), 1)
}

func TestCollectURLs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/list/2023-August/date.html", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, monthPage)
	})
	mux.HandleFunc("/list/2023-July/date.html", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(srv.Client(), noRetry(), nil)
	urls, err := s.CollectURLs(context.Background(), srv.URL+"/list/", time.Date(2023, time.August, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, []string{
		srv.URL + "/list/2023-August/021801.html",
		srv.URL + "/list/2023-August/021802.html",
	}, urls)
}

func TestScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, messagePage)
	}))
	defer srv.Close()

	s := New(srv.Client(), noRetry(), nil)
	email, err := s.Scrape(context.Background(), srv.URL+"/021801.html")
	require.NoError(t, err)

	require.Equal(t, "Alice Smith", email.Author)
	require.Equal(t, "[bitcoin-dev] Covenants", email.Subject)
	require.Equal(t, time.Date(2023, time.August, 7, 10, 11, 12, 0, time.UTC), email.Timestamp)
	require.Equal(t, "Hi all, This proposal adds a new opcode.", email.Body)
	require.Equal(t, srv.URL+"/021801.html", email.URL)
}

func TestScrapeRetriesThenFails(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := New(srv.Client(), noRetry(), nil)
	_, err := s.Scrape(context.Background(), srv.URL+"/x.html")
	require.ErrorIs(t, err, retry.ErrExhausted)
	require.EqualValues(t, 2, hits.Load())
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"Mon Aug  7 10:11:12 UTC 2023", time.Date(2023, 8, 7, 10, 11, 12, 0, time.UTC)},
		{"Tue Aug 15 10:11:12 +0200 2023", time.Date(2023, 8, 15, 8, 11, 12, 0, time.UTC)},
		{"Tue, 15 Aug 2023 10:11:12 +0200", time.Date(2023, 8, 15, 8, 11, 12, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		require.NoError(t, err, tt.in)
		require.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
	}

	_, err := ParseTimestamp("yesterday")
	require.Error(t, err)
}

func TestPastWeek(t *testing.T) {
	now := time.Date(2023, 8, 10, 12, 0, 0, 0, time.UTC)
	emails := []models.Email{
		{Subject: "old", Timestamp: now.AddDate(0, 0, -8), Body: "a b"},
		{Subject: "edge", Timestamp: now.AddDate(0, 0, -7), Body: "a b c"},
		{Subject: "fresh", Timestamp: now.Add(-time.Hour), Body: "one two three four"},
		{Subject: "future", Timestamp: now.Add(time.Hour), Body: "x"},
		{Subject: "undated", Body: "x"},
	}

	got := PastWeek(emails, now, 7*24*time.Hour, &testutil.WordTokenizer{})
	require.Len(t, got, 2)
	require.Equal(t, "edge", got[0].Subject)
	require.Equal(t, 3, got[0].Tokens)
	require.Equal(t, 4, got[1].Tokens)
}
