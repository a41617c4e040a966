package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickfin/tickerfind/internal/store"
)

// fakeIndex records queries and returns canned hits.
type fakeIndex struct {
	hits    []store.Hit
	err     error
	queries []string
}

func (f *fakeIndex) Query(_ context.Context, queryStr string, _ int) ([]store.Hit, error) {
	f.queries = append(f.queries, queryStr)
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func TestSuggest_ShortQuerySkipsIndex(t *testing.T) {
	idx := &fakeIndex{hits: []store.Hit{{Name: "Acme Corp", Ticker: "ACM"}}}
	svc := NewService(idx, Options{MinQueryLen: 3})

	for _, q := range []string{"", "a", "ab"} {
		got, err := svc.Suggest(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, got, "query %q should return no suggestions", q)
	}

	assert.Empty(t, idx.queries, "index must not be hit for short queries")
}

func TestSuggest_MapsHitsInOrder(t *testing.T) {
	idx := &fakeIndex{hits: []store.Hit{
		{Name: "Acme Corp", Ticker: "ACM", Score: 2.0},
		{Name: "Acme Industries", Ticker: "ACI", Score: 1.0},
	}}
	svc := NewService(idx, Options{})

	got, err := svc.Suggest(context.Background(), "acme")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, Suggestion{Name: "Acme Corp", Ticker: "ACM"}, got[0])
	assert.Equal(t, Suggestion{Name: "Acme Industries", Ticker: "ACI"}, got[1])
}

func TestSuggest_CachesRepeatedQueries(t *testing.T) {
	idx := &fakeIndex{hits: []store.Hit{{Name: "Acme Corp", Ticker: "ACM"}}}
	svc := NewService(idx, Options{})

	_, err := svc.Suggest(context.Background(), "acme")
	require.NoError(t, err)
	_, err = svc.Suggest(context.Background(), "Acme")
	require.NoError(t, err)

	// Second call hits the cache (case-insensitive key)
	assert.Len(t, idx.queries, 1)
}

func TestSuggest_InvalidateCacheForcesRequery(t *testing.T) {
	idx := &fakeIndex{hits: []store.Hit{{Name: "Acme Corp", Ticker: "ACM"}}}
	svc := NewService(idx, Options{})

	_, err := svc.Suggest(context.Background(), "acme")
	require.NoError(t, err)

	svc.InvalidateCache()

	_, err = svc.Suggest(context.Background(), "acme")
	require.NoError(t, err)
	assert.Len(t, idx.queries, 2)
}

func TestSuggest_IndexErrorPropagates(t *testing.T) {
	idx := &fakeIndex{err: errors.New("boom")}
	svc := NewService(idx, Options{})

	_, err := svc.Suggest(context.Background(), "acme")
	assert.Error(t, err)
}

func TestSuggest_EmptyHitsReturnEmptySlice(t *testing.T) {
	idx := &fakeIndex{}
	svc := NewService(idx, Options{})

	got, err := svc.Suggest(context.Background(), "zzz")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDisplay_Format(t *testing.T) {
	s := Suggestion{Name: "Acme Corp", Ticker: "ACM"}
	assert.Equal(t, "Acme Corp (ACM)", s.Display())
}

func TestSuggest_MultibyteQueryLength(t *testing.T) {
	idx := &fakeIndex{hits: []store.Hit{{Name: "Müller AG", Ticker: "MUE"}}}
	svc := NewService(idx, Options{MinQueryLen: 3})

	// "mü" is 2 runes but 3 bytes; must still be below the minimum
	got, err := svc.Suggest(context.Background(), "mü")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, idx.queries)
}
