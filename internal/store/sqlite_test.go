package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestCachedFileRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.GetCachedFile(ctx, "https://example.com/missing.zip")
	require.NoError(t, err)
	assert.Nil(t, got)

	f := CachedFile{
		URL:       "https://example.com/malha.zip",
		ETag:      `"abc123"`,
		Path:      "/tmp/cache/malha.zip",
		FetchedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.PutCachedFile(ctx, f))

	got, err = s.GetCachedFile(ctx, f.URL)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f.ETag, got.ETag)
	assert.Equal(t, f.Path, got.Path)
}

func TestPutCachedFileUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	url := "https://example.com/estimativa.xlsx"
	require.NoError(t, s.PutCachedFile(ctx, CachedFile{URL: url, ETag: `"v1"`, Path: "/a"}))
	require.NoError(t, s.PutCachedFile(ctx, CachedFile{URL: url, ETag: `"v2"`, Path: "/b"}))

	got, err := s.GetCachedFile(ctx, url)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `"v2"`, got.ETag)
	assert.Equal(t, "/b", got.Path)
}

func TestListCachedFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	files, err := s.ListCachedFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)

	require.NoError(t, s.PutCachedFile(ctx, CachedFile{URL: "b", Path: "/b"}))
	require.NoError(t, s.PutCachedFile(ctx, CachedFile{URL: "a", Path: "/a"}))

	files, err = s.ListCachedFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a", files[0].URL)
	assert.Equal(t, "b", files[1].URL)
}

func TestClearCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutCachedFile(ctx, CachedFile{URL: "u1", Path: "/a"}))
	require.NoError(t, s.PutCachedFile(ctx, CachedFile{URL: "u2", Path: "/b"}))

	n, err := s.ClearCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.GetCachedFile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecordAndListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.RecordRun(ctx, Run{
		Threshold:      30000,
		PopulationYear: 2021,
		OriginalCount:  5570,
		MergedCount:    2310,
		DefaultedUnits: 3,
		State:          "converged",
		Merges:         3260,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := s.RecordRun(ctx, Run{
		Threshold:      50000,
		PopulationYear: 2021,
		OriginalCount:  5570,
		MergedCount:    1500,
		State:          "converged",
		Merges:         4070,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.ElementsMatch(t, []int64{30000, 50000}, []int64{runs[0].Threshold, runs[1].Threshold})

	one, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}
