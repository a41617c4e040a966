package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickfin/tickerfind/internal/catalog"
)

func testCatalog() []catalog.Security {
	return []catalog.Security{
		{Name: "Acme Corp", Ticker: "ACM"},
		{Name: "Acme Industries", Ticker: "ACI"},
		{Name: "Globex Industries", Ticker: "GBX"},
		{Name: "Initech Fund", Ticker: "INI"},
	}
}

func newTestIndex(t *testing.T) *SuggestIndex {
	t.Helper()
	idx, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	require.NoError(t, idx.Index(context.Background(), testCatalog()))
	return idx
}

func TestQuery_NamePrefix(t *testing.T) {
	idx := newTestIndex(t)

	hits, err := idx.Query(context.Background(), "acm", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.Name
	}
	assert.Contains(t, names, "Acme Corp")
	assert.Contains(t, names, "Acme Industries")
}

func TestQuery_TickerPrefix(t *testing.T) {
	idx := newTestIndex(t)

	hits, err := idx.Query(context.Background(), "gbx", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "Globex Industries", hits[0].Name)
	assert.Equal(t, "GBX", hits[0].Ticker)
}

func TestQuery_FullWordCaseInsensitive(t *testing.T) {
	idx := newTestIndex(t)

	hits, err := idx.Query(context.Background(), "INDUSTRIES", 10)
	require.NoError(t, err)

	tickers := make([]string, len(hits))
	for i, h := range hits {
		tickers[i] = h.Ticker
	}
	assert.Contains(t, tickers, "ACI")
	assert.Contains(t, tickers, "GBX")
}

func TestQuery_NoMatches(t *testing.T) {
	idx := newTestIndex(t)

	hits, err := idx.Query(context.Background(), "zzz", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestQuery_EmptyQuery(t *testing.T) {
	idx := newTestIndex(t)

	hits, err := idx.Query(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestQuery_RespectsLimit(t *testing.T) {
	idx := newTestIndex(t)

	hits, err := idx.Query(context.Background(), "acme", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestRebuild_ReplacesContents(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Rebuild(ctx, []catalog.Security{
		{Name: "Umbrella Corp", Ticker: "UMB"},
	}))

	assert.Equal(t, 1, idx.DocCount())

	hits, err := idx.Query(ctx, "acme", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Query(ctx, "umb", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "UMB", hits[0].Ticker)
}

func TestRebuild_ConcurrentWithIndexStaysConsistent(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			sec := catalog.Security{
				Name:   fmt.Sprintf("Filler Corp %d", n),
				Ticker: fmt.Sprintf("FIL%d", n),
			}
			assert.NoError(t, idx.Index(ctx, []catalog.Security{sec}))
		}(i)
		go func() {
			defer wg.Done()
			assert.NoError(t, idx.Rebuild(ctx, []catalog.Security{
				{Name: "Umbrella Corp", Ticker: "UMB"},
			}))
		}()
	}
	wg.Wait()

	// With writers quiesced, a rebuild owns the full contents.
	require.NoError(t, idx.Rebuild(ctx, []catalog.Security{
		{Name: "Umbrella Corp", Ticker: "UMB"},
	}))
	assert.Equal(t, 1, idx.DocCount())
}

func TestOpen_PersistentIndexSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggest.bleve")
	ctx := context.Background()

	idx, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, idx.Index(ctx, testCatalog()))
	require.NoError(t, idx.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 4, reopened.DocCount())
}

func TestQuery_ClosedIndexErrors(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	_, err = idx.Query(context.Background(), "acme", 10)
	assert.Error(t, err)
}

func TestRebuildLock_TryLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggest.bleve")

	l1 := NewRebuildLock(path)
	acquired, err := l1.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)

	defer func() { _ = l1.Unlock() }()

	// Unlock is safe when not held
	l2 := NewRebuildLock(path)
	assert.NoError(t, l2.Unlock())
}
