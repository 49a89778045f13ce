package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS fetch_cache (
	url        TEXT PRIMARY KEY,
	etag       TEXT NOT NULL DEFAULT '',
	path       TEXT NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	threshold       INTEGER NOT NULL,
	population_year INTEGER NOT NULL,
	original_count  INTEGER NOT NULL,
	merged_count    INTEGER NOT NULL,
	defaulted_units INTEGER NOT NULL,
	state           TEXT NOT NULL,
	merges          INTEGER NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetCachedFile returns the cache entry for url, or nil when none exists.
func (s *SQLiteStore) GetCachedFile(ctx context.Context, url string) (*CachedFile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT url, etag, path, fetched_at FROM fetch_cache WHERE url = ?`,
		url,
	)

	var f CachedFile
	err := row.Scan(&f.URL, &f.ETag, &f.Path, &f.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached file")
	}
	return &f, nil
}

// PutCachedFile inserts or replaces the cache entry for f.URL.
func (s *SQLiteStore) PutCachedFile(ctx context.Context, f CachedFile) error {
	fetchedAt := f.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fetch_cache (url, etag, path, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET etag = excluded.etag, path = excluded.path, fetched_at = excluded.fetched_at`,
		f.URL, f.ETag, f.Path, fetchedAt,
	)
	return eris.Wrap(err, "sqlite: put cached file")
}

// ListCachedFiles returns every cache entry ordered by URL.
func (s *SQLiteStore) ListCachedFiles(ctx context.Context) ([]CachedFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, etag, path, fetched_at FROM fetch_cache ORDER BY url`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list cached files")
	}
	defer rows.Close()

	var files []CachedFile
	for rows.Next() {
		var f CachedFile
		if err := rows.Scan(&f.URL, &f.ETag, &f.Path, &f.FetchedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan cached file")
		}
		files = append(files, f)
	}
	return files, eris.Wrap(rows.Err(), "sqlite: list cached files iterate")
}

// ClearCache removes every cache entry and reports how many were deleted.
func (s *SQLiteStore) ClearCache(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fetch_cache`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: clear cache")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// RecordRun inserts a run row, assigning it a fresh ID and timestamp.
func (s *SQLiteStore) RecordRun(ctx context.Context, r Run) (*Run, error) {
	r.ID = uuid.New().String()
	r.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, threshold, population_year, original_count, merged_count, defaulted_units, state, merges, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Threshold, r.PopulationYear, r.OriginalCount, r.MergedCount, r.DefaultedUnits, r.State, r.Merges, r.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return &r, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, threshold, population_year, original_count, merged_count, defaulted_units, state, merges, created_at
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Threshold, &r.PopulationYear, &r.OriginalCount, &r.MergedCount,
			&r.DefaultedUnits, &r.State, &r.Merges, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}
