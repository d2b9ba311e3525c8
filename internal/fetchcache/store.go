package fetchcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"epgmerge/internal/fetch"
)

const schema = `
CREATE TABLE IF NOT EXISTS responses (
    url           TEXT PRIMARY KEY,
    etag          TEXT NOT NULL DEFAULT '',
    last_modified TEXT NOT NULL DEFAULT '',
    body          BLOB NOT NULL,
    stored_at     TEXT NOT NULL
);
`

// Store manages cached fetch responses backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ fetch.Cache = (*Store)(nil)

// Open initializes or connects to the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Lookup returns the cached response for url, or (nil, nil) when absent.
func (s *Store) Lookup(ctx context.Context, url string) (*fetch.CachedResponse, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT etag, last_modified, body FROM responses WHERE url = ?`, url)

	var cached fetch.CachedResponse
	if err := row.Scan(&cached.ETag, &cached.LastModified, &cached.Body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup cached response: %w", err)
	}
	return &cached, nil
}

// Store upserts the response body and validators for url.
func (s *Store) Store(ctx context.Context, url, etag, lastModified string, body []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO responses (url, etag, last_modified, body, stored_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
		     etag = excluded.etag,
		     last_modified = excluded.last_modified,
		     body = excluded.body,
		     stored_at = excluded.stored_at`,
		url, etag, lastModified, body, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store cached response: %w", err)
	}
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
