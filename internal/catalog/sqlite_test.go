package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSecurities() []Security {
	return []Security{
		{Name: "Acme Corp", Ticker: "ACM", Exchange: "NYSE", Type: "Stock"},
		{Name: "Globex Industries", Ticker: "GBX", Exchange: "NASDAQ", Type: "Stock"},
		{Name: "Initech Fund", Ticker: "INI", Type: "Mutual Fund"},
	}
}

func TestStore_UpsertAndAll(t *testing.T) {
	store, err := OpenStore("")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, testSecurities()))

	secs, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, secs, 3)

	// Ordered by ticker
	assert.Equal(t, "ACM", secs[0].Ticker)
	assert.Equal(t, "GBX", secs[1].Ticker)
	assert.Equal(t, "INI", secs[2].Ticker)
}

func TestStore_UpsertIsIdempotent(t *testing.T) {
	store, err := OpenStore("")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, testSecurities()))
	require.NoError(t, store.Upsert(ctx, testSecurities()))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStore_UpsertUpdatesFields(t *testing.T) {
	store, err := OpenStore("")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, []Security{{Name: "Acme Corp", Ticker: "ACM"}}))
	require.NoError(t, store.Upsert(ctx, []Security{{Name: "Acme Corp", Ticker: "ACM", Exchange: "NYSE"}}))

	secs, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, secs, 1)
	assert.Equal(t, "NYSE", secs[0].Exchange)
}

func TestStore_RejectsInvalidSecurity(t *testing.T) {
	store, err := OpenStore("")
	require.NoError(t, err)
	defer store.Close()

	err = store.Upsert(context.Background(), []Security{{Name: "", Ticker: "ACM"}})
	assert.Error(t, err)
}

func TestStore_PersistsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	store, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, testSecurities()))
	require.NoError(t, store.Close())

	reopened, err := OpenStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	store, err := OpenStore("")
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
