// Package store persists downloaded-file metadata and merge run history
// in a local SQLite database.
package store

import (
	"context"
	"time"
)

// CachedFile records a previously downloaded source file so later runs can
// reuse it without hitting IBGE again.
type CachedFile struct {
	URL       string
	ETag      string
	Path      string
	FetchedAt time.Time
}

// Run is one completed merge execution.
type Run struct {
	ID             string
	Threshold      int64
	PopulationYear int
	OriginalCount  int
	MergedCount    int
	DefaultedUnits int
	State          string
	Merges         int
	CreatedAt      time.Time
}

// Store is the persistence interface for cache entries and run history.
type Store interface {
	Migrate(ctx context.Context) error
	Close() error

	GetCachedFile(ctx context.Context, url string) (*CachedFile, error)
	PutCachedFile(ctx context.Context, f CachedFile) error
	ListCachedFiles(ctx context.Context) ([]CachedFile, error)
	ClearCache(ctx context.Context) (int, error)

	RecordRun(ctx context.Context, r Run) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}
