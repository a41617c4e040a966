package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// Store persists the security catalog in SQLite.
// WAL mode allows the serve process and the index command to share the file.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// validateIntegrity checks a catalog database before opening.
// Returns nil if the file is absent (it will be created) or healthy.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// OpenStore opens (or creates) the catalog store at path.
// An empty path opens an in-memory store for testing.
// A corrupted database is cleared and recreated; the catalog is
// reproducible from the seed file, so this loses nothing durable.
func OpenStore(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateIntegrity(path); validErr != nil {
			slog.Warn("catalog_db_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("catalog db corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")

			slog.Info("catalog_db_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, reimport the seed file"))
		}

		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to prevent lock contention
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode must be set via PRAGMA for modernc.org/sqlite
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates the securities table.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS securities (
		ticker   TEXT NOT NULL,
		name     TEXT NOT NULL,
		exchange TEXT NOT NULL DEFAULT '',
		type     TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (ticker, name)
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Upsert inserts or updates securities in a single transaction.
func (s *Store) Upsert(ctx context.Context, secs []Security) error {
	if len(secs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("catalog store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO securities (ticker, name, exchange, type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (ticker, name) DO UPDATE SET
			exchange = excluded.exchange,
			type = excluded.type`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, sec := range secs {
		if err := sec.Validate(); err != nil {
			return fmt.Errorf("invalid security: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, sec.Ticker, sec.Name, sec.Exchange, sec.Type); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", sec.Ticker, err)
		}
	}

	return tx.Commit()
}

// All returns every security in the catalog, ordered by ticker then name.
func (s *Store) All(ctx context.Context) ([]Security, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("catalog store is closed")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ticker, name, exchange, type FROM securities ORDER BY ticker, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query securities: %w", err)
	}
	defer rows.Close()

	var secs []Security
	for rows.Next() {
		var sec Security
		if err := rows.Scan(&sec.Ticker, &sec.Name, &sec.Exchange, &sec.Type); err != nil {
			return nil, fmt.Errorf("failed to scan security: %w", err)
		}
		secs = append(secs, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return secs, nil
}

// Count returns the number of securities in the catalog.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("catalog store is closed")
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM securities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count securities: %w", err)
	}
	return n, nil
}

// Close closes the store. Safe to call multiple times.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
