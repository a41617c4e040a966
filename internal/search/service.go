// Package search turns index hits into the suggestion lists the
// type-ahead widget renders.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/quickfin/tickerfind/internal/store"
)

// DefaultCacheSize is the default number of query results to cache.
const DefaultCacheSize = 256

// Suggestion is one candidate match: the security name plus the ticker
// the widget copies into the companion field on selection.
type Suggestion struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// Display returns the rendered entry text for a suggestion.
func (s Suggestion) Display() string {
	return fmt.Sprintf("%s (%s)", s.Name, s.Ticker)
}

// Index is the query surface the service needs from the store.
type Index interface {
	Query(ctx context.Context, queryStr string, limit int) ([]store.Hit, error)
}

// Service answers suggestion queries against the index.
// Results for recent queries are cached; the cache is flushed on reindex.
type Service struct {
	idx        Index
	minLen     int
	maxResults int
	cache      *lru.Cache[string, []Suggestion]
}

// Options configures a Service.
type Options struct {
	// MinQueryLen gates how short a query may be before the index is hit.
	MinQueryLen int
	// MaxResults caps the suggestion list length.
	MaxResults int
	// CacheSize is the LRU capacity; <= 0 uses DefaultCacheSize.
	CacheSize int
}

// NewService creates a suggestion service over the given index.
func NewService(idx Index, opts Options) *Service {
	if opts.MinQueryLen <= 0 {
		opts.MinQueryLen = 3
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, []Suggestion](opts.CacheSize)
	return &Service{
		idx:        idx,
		minLen:     opts.MinQueryLen,
		maxResults: opts.MaxResults,
		cache:      cache,
	}
}

// MinQueryLen returns the minimum query length the service answers for.
func (s *Service) MinQueryLen() int {
	return s.minLen
}

// Suggest returns suggestions for the query in index score order.
// Queries shorter than the minimum length return an empty list without
// touching the index. Duplicate entries in the index are returned as-is.
func (s *Service) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	if utf8.RuneCountInString(query) < s.minLen {
		return []Suggestion{}, nil
	}

	key := strings.ToLower(strings.TrimSpace(query))
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	hits, err := s.idx.Query(ctx, query, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("suggestion lookup failed: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(hits))
	for _, h := range hits {
		suggestions = append(suggestions, Suggestion{Name: h.Name, Ticker: h.Ticker})
	}

	s.cache.Add(key, suggestions)
	return suggestions, nil
}

// InvalidateCache drops all cached query results.
// Called after a reindex so stale suggestions don't survive a catalog edit.
func (s *Service) InvalidateCache() {
	s.cache.Purge()
	slog.Debug("suggestion_cache_purged")
}
