// Package catalog owns the security catalog: the set of instruments a user
// can search for by name and auto-fill a ticker from. Entries are seeded
// from a JSON file and persisted in a SQLite store.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Security is one catalog entry. Name and Ticker are what the suggestion
// widget surfaces; Exchange and Type are carried for display and filtering.
type Security struct {
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	Exchange string `json:"exchange,omitempty"`
	Type     string `json:"type,omitempty"`
}

// ID returns the catalog identity for a security.
// Ticker alone is not unique across exchanges, so the pair is used.
func (s Security) ID() string {
	return strings.ToUpper(s.Ticker) + "|" + s.Name
}

// Validate checks that the required fields are present.
func (s Security) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("security has empty name")
	}
	if strings.TrimSpace(s.Ticker) == "" {
		return fmt.Errorf("security %q has empty ticker", s.Name)
	}
	return nil
}

// LoadSeed reads a JSON seed file containing an array of securities.
// Entries with missing name or ticker are skipped with a count returned,
// not treated as fatal: seed files are hand-edited.
func LoadSeed(path string) ([]Security, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var entries []Security
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, 0, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	valid := make([]Security, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		if e.Validate() != nil {
			skipped++
			continue
		}
		e.Ticker = strings.ToUpper(strings.TrimSpace(e.Ticker))
		e.Name = strings.TrimSpace(e.Name)
		valid = append(valid, e)
	}

	return valid, skipped, nil
}
