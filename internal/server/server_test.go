package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickfin/tickerfind/internal/catalog"
	"github.com/quickfin/tickerfind/internal/search"
	"github.com/quickfin/tickerfind/internal/store"
)

// failingSuggester always errors, for the error-path test.
type failingSuggester struct{}

func (failingSuggester) Suggest(context.Context, string) ([]search.Suggestion, error) {
	return nil, errors.New("index exploded")
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	idx, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	require.NoError(t, idx.Index(context.Background(), []catalog.Security{
		{Name: "Acme Corp", Ticker: "ACM"},
		{Name: "Globex Industries", Ticker: "GBX"},
	}))

	svc := search.NewService(idx, search.Options{MinQueryLen: 3, MaxResults: 10})
	srv := New("127.0.0.1:0", nil, svc)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getSuggestions(t *testing.T, ts *httptest.Server, query string) (int, []search.Suggestion) {
	t.Helper()

	resp, err := http.Get(ts.URL + "/api/search?q=" + url.QueryEscape(query))
	require.NoError(t, err)
	defer resp.Body.Close()

	var got []search.Suggestion
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	}
	return resp.StatusCode, got
}

func TestSearch_ReturnsMatches(t *testing.T) {
	ts := newTestServer(t)

	status, got := getSuggestions(t, ts, "acme")
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, got, 1)
	assert.Equal(t, "Acme Corp", got[0].Name)
	assert.Equal(t, "ACM", got[0].Ticker)
}

func TestSearch_PercentEncodedQuery(t *testing.T) {
	ts := newTestServer(t)

	// "acme corp" arrives percent-encoded and must be decoded before lookup
	status, got := getSuggestions(t, ts, "acme corp")
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, got, 1)
	assert.Equal(t, "ACM", got[0].Ticker)
}

func TestSearch_ShortQueryReturnsEmptyArray(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/search?q=ac")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.JSONEq(t, `[]`, string(raw), "short query must yield an empty array, not null")
}

func TestSearch_NoMatchesReturnsEmptyArray(t *testing.T) {
	ts := newTestServer(t)

	status, got := getSuggestions(t, ts, "zzzzzz")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, got)
}

func TestSearch_MissingQueryParam(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/search")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSearch_LookupFailureIs500(t *testing.T) {
	srv := New("127.0.0.1:0", nil, failingSuggester{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/search?q=acme")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestListenAndServe_StopsOnContextCancel(t *testing.T) {
	idx, err := store.Open("")
	require.NoError(t, err)
	defer idx.Close()

	svc := search.NewService(idx, search.Options{})
	srv := New("127.0.0.1:0", nil, svc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
