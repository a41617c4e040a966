package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeed_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "securities.json")
	seed := `[
		{"name": "Acme Corp", "ticker": "acm", "exchange": "NYSE", "type": "Stock"},
		{"name": "Globex Industries", "ticker": "GBX"},
		{"name": "", "ticker": "BAD"},
		{"name": "No Ticker Inc", "ticker": ""}
	]`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	secs, skipped, err := LoadSeed(path)
	require.NoError(t, err)

	assert.Len(t, secs, 2)
	assert.Equal(t, 2, skipped)
	// Tickers are normalized to upper case
	assert.Equal(t, "ACM", secs[0].Ticker)
	assert.Equal(t, "Acme Corp", secs[0].Name)
}

func TestLoadSeed_MissingFile(t *testing.T) {
	_, _, err := LoadSeed(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadSeed_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "securities.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"`), 0o644))

	_, _, err := LoadSeed(path)
	assert.Error(t, err)
}

func TestSecurity_ID(t *testing.T) {
	s := Security{Name: "Acme Corp", Ticker: "acm"}
	assert.Equal(t, "ACM|Acme Corp", s.ID())
}
