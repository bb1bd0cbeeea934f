package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/list-digest/internal/feed"
)

type stubHealth struct {
	err error
}

func (s stubHealth) Health(context.Context) error {
	return s.err
}

func newTestServer(t *testing.T, health error) (*httptest.Server, *feed.Store) {
	t.Helper()
	store, err := feed.NewStore(t.TempDir())
	require.NoError(t, err)

	srv := &server{
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		es:    stubHealth{err: health},
		store: store,
	}
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts, store
}

func get(t *testing.T, url string) (int, string, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get("Content-Type"), string(body)
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	status, _, body := get(t, ts.URL+"/health")
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"status":"ok"}`, body)

	down, _ := newTestServer(t, errors.New("cluster red"))
	status, _, body = get(t, down.URL+"/health")
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.JSONEq(t, `{"error":"cluster red"}`, body)
}

func TestFeeds(t *testing.T) {
	ts, store := newTestServer(t, nil)

	status, _, _ := get(t, ts.URL+"/feeds/homepage")
	require.Equal(t, http.StatusNotFound, status)

	require.NoError(t, store.WriteJSON(context.Background(), feed.HomepageFile, feed.Homepage{HeaderSummary: "hello"}))
	status, ctype, body := get(t, ts.URL+"/feeds/homepage")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "application/json", ctype)
	require.Contains(t, body, `"header_summary": "hello"`)

	require.NoError(t, store.WriteJSON(context.Background(), feed.NewsletterFile, feed.Newsletter{Summary: "weekly"}))
	status, _, body = get(t, ts.URL+"/feeds/newsletter")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "weekly")
}

func TestStatic(t *testing.T) {
	ts, store := newTestServer(t, nil)
	rel := "bitcoin-dev/Aug_2023/0001_Covenants.xml"
	require.NoError(t, store.WritePost(context.Background(), rel, feed.FeedData{ID: "1", Title: "Covenants", Summary: "s"}))

	status, ctype, body := get(t, ts.URL+"/"+feed.PublicPath(rel))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "application/atom+xml; charset=utf-8", ctype)
	require.Contains(t, body, "<title>Covenants</title>")

	status, _, _ = get(t, ts.URL+"/static/bitcoin-dev/Aug_2023/missing.xml")
	require.Equal(t, http.StatusNotFound, status)

	status, _, _ = get(t, ts.URL+"/static/..%2F..%2Fetc%2Fpasswd")
	require.Equal(t, http.StatusBadRequest, status)
}
