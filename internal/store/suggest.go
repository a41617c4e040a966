// Package store provides the bleve-backed suggestion index.
// This is the persistence layer the search API queries.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/quickfin/tickerfind/internal/catalog"
)

// SuggestAnalyzerName is the name of the analyzer used for suggestion fields.
const SuggestAnalyzerName = "suggest_analyzer"

// SuggestIndex wraps a bleve index over the security catalog.
type SuggestIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// suggestDocument is the document structure for bleve indexing.
type suggestDocument struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// Hit is one scored index match.
type Hit struct {
	Name   string
	Ticker string
	Score  float64
}

// validateIndexIntegrity checks if a bleve index is valid before opening.
// Returns nil if the index is absent (it will be created) or healthy.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}

	return nil
}

// isCorruptionError checks if an error indicates bleve index corruption.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// Open opens (or creates) the suggestion index at path.
// If path is empty, an in-memory index is created for testing.
// A corrupted index is cleared and recreated; it is reproducible from
// the catalog store, so nothing durable is lost.
func Open(path string) (*SuggestIndex, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateIndexIntegrity(path); validErr != nil {
			slog.Warn("suggest_index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, fmt.Errorf("suggest index corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			slog.Info("suggest_index_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, please reindex"))
		}

		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		} else if err != nil && isCorruptionError(err) {
			slog.Warn("suggest_index_open_failed",
				slog.String("path", path),
				slog.String("error", err.Error()))

			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, fmt.Errorf("suggest index corrupted, cannot clear: %w (original: %v)", removeErr, err)
			}
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	return &SuggestIndex{index: idx, path: path}, nil
}

// createIndexMapping builds the bleve mapping for suggestion documents.
// Both fields share a lowercasing analyzer so prefix queries can be
// matched against lowercased input.
func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(SuggestAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			lowercase.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}

	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = SuggestAnalyzerName
	nameField.Store = true

	tickerField := bleve.NewTextFieldMapping()
	tickerField.Analyzer = SuggestAnalyzerName
	tickerField.Store = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("name", nameField)
	docMapping.AddFieldMappingsAt("ticker", tickerField)

	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = SuggestAnalyzerName

	return indexMapping, nil
}

// Index adds securities to the index, keyed by catalog identity.
func (s *SuggestIndex) Index(ctx context.Context, secs []catalog.Security) error {
	if len(secs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("index is closed")
	}

	batch := s.index.NewBatch()
	for _, sec := range secs {
		doc := suggestDocument{Name: sec.Name, Ticker: sec.Ticker}
		if err := batch.Index(sec.ID(), doc); err != nil {
			return fmt.Errorf("failed to index %s: %w", sec.ID(), err)
		}
	}

	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	return nil
}

// Rebuild replaces the whole index contents with the given securities.
// Cross-process rebuilds are serialized with a RebuildLock; in-process
// writers are excluded for the whole scan-and-replace.
func (s *SuggestIndex) Rebuild(ctx context.Context, secs []catalog.Security) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("index is closed")
	}

	// The ID scan and the delete batch share the write lock so a
	// concurrent Index cannot slip documents in between them.
	ids, err := s.allIDsLocked()
	if err != nil {
		return err
	}

	batch := s.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	for _, sec := range secs {
		doc := suggestDocument{Name: sec.Name, Ticker: sec.Ticker}
		if err := batch.Index(sec.ID(), doc); err != nil {
			return fmt.Errorf("failed to index %s: %w", sec.ID(), err)
		}
	}

	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute rebuild batch: %w", err)
	}

	return nil
}

// Query returns securities matching the query string, best score first.
// The query is matched as a term disjunction over names plus prefix
// matches on both name and ticker, so "acm" finds both "Acme Corp" (name
// prefix) and ticker "ACM".
func (s *SuggestIndex) Query(ctx context.Context, queryStr string, limit int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("index is closed")
	}

	queryStr = strings.TrimSpace(queryStr)
	if queryStr == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	// Prefix queries bypass the analyzer, so lowercase by hand.
	lowered := strings.ToLower(queryStr)

	nameMatch := bleve.NewMatchQuery(queryStr)
	nameMatch.SetField("name")

	namePrefix := bleve.NewPrefixQuery(lowered)
	namePrefix.SetField("name")

	tickerPrefix := bleve.NewPrefixQuery(lowered)
	tickerPrefix.SetField("ticker")

	disjunction := bleve.NewDisjunctionQuery(nameMatch, namePrefix, tickerPrefix)

	req := bleve.NewSearchRequestOptions(disjunction, limit, 0, false)
	req.Fields = []string{"name", "ticker"}

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		name, _ := hit.Fields["name"].(string)
		ticker, _ := hit.Fields["ticker"].(string)
		hits = append(hits, Hit{Name: name, Ticker: ticker, Score: hit.Score})
	}

	return hits, nil
}

// allIDsLocked returns every document ID in the index.
// Caller must hold s.mu.
func (s *SuggestIndex) allIDsLocked() ([]string, error) {
	docCount, _ := s.index.DocCount()
	if docCount == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(docCount), 0, false)

	result, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search for all IDs: %w", err)
	}

	ids := make([]string, len(result.Hits))
	for i, hit := range result.Hits {
		ids[i] = hit.ID
	}

	return ids, nil
}

// DocCount returns the number of indexed securities.
func (s *SuggestIndex) DocCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0
	}

	n, _ := s.index.DocCount()
	return int(n)
}

// Close closes the index. Safe to call multiple times.
func (s *SuggestIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.index.Close()
}
