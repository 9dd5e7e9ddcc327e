// Package sqlite provides a persistent geocoding cache backed by SQLite, so
// repeated pipeline runs reuse coordinates resolved in earlier runs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/school-map-service/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	query        TEXT PRIMARY KEY,
	lat          REAL NOT NULL,
	lng          REAL NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	importance   REAL NOT NULL DEFAULT 0,
	created_at   TIMESTAMP NOT NULL
);`

// Store is a geocoding cache persisted in a single SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path. The special
// path ":memory:" keeps the cache in memory.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open geocode cache: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		schema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init geocode cache: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Get returns the cached result for query, if any.
func (s *Store) Get(ctx context.Context, query string) (domain.GeocodingResult, bool, error) {
	var r domain.GeocodingResult
	err := s.db.QueryRowContext(ctx,
		`SELECT lat, lng, display_name, importance FROM geocode_cache WHERE query = ?`, query,
	).Scan(&r.Lat, &r.Lng, &r.DisplayName, &r.Importance)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GeocodingResult{}, false, nil
	}
	if err != nil {
		return domain.GeocodingResult{}, false, fmt.Errorf("read geocode cache: %w", err)
	}
	return r, true, nil
}

// Put stores or replaces the result for query.
func (s *Store) Put(ctx context.Context, query string, r domain.GeocodingResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (query, lat, lng, display_name, importance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(query) DO UPDATE SET
			lat = excluded.lat,
			lng = excluded.lng,
			display_name = excluded.display_name,
			importance = excluded.importance,
			created_at = excluded.created_at`,
		query, r.Lat, r.Lng, r.DisplayName, r.Importance, domain.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write geocode cache: %w", err)
	}
	return nil
}

// Len returns the number of cached queries.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM geocode_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count geocode cache: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
