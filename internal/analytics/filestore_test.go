package analytics

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelscout/reelscout/internal/tmdb"
)

const imageBase = "https://image.tmdb.org/t/p/w500"

var (
	batman  = tmdb.Movie{ID: 268, Title: "Batman", PosterPath: "/batman.jpg"}
	batman2 = tmdb.Movie{ID: 364, Title: "Batman Returns", PosterPath: "/returns.jpg"}
	heat    = tmdb.Movie{ID: 949, Title: "Heat"}
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s := NewFileStore(t.TempDir(), imageBase)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestFileStore_RecordCreatesThenIncrements(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordSearch(ctx, "batman", batman))
	require.NoError(t, s.RecordSearch(ctx, "  batman ", batman2))

	trending, err := s.Trending(ctx, 5)
	require.NoError(t, err)
	require.Len(t, trending, 1)

	got := trending[0]
	assert.Equal(t, "batman", got.Term)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, int64(268), got.MovieID, "first recorded movie is kept")
	assert.Equal(t, "Batman", got.Title)
	assert.Equal(t, imageBase+"/batman.jpg", got.PosterURL)
}

func TestFileStore_PlaceholderPoster(t *testing.T) {
	s := newFileStore(t)
	require.NoError(t, s.RecordSearch(context.Background(), "heat", heat))

	trending, err := s.Trending(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, trending, 1)
	assert.Equal(t, tmdb.PlaceholderPoster, trending[0].PosterURL)
}

func TestFileStore_RejectsBlankTerm(t *testing.T) {
	s := newFileStore(t)
	assert.ErrorIs(t, s.RecordSearch(context.Background(), "   ", batman), ErrEmptyTerm)

	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "blank terms must not create the log")
}

func TestFileStore_TrendingOrderAndLimit(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, s.RecordSearch(ctx, "heat", heat))
	}
	require.NoError(t, s.RecordSearch(ctx, "alien", tmdb.Movie{ID: 348, Title: "Alien"}))
	require.NoError(t, s.RecordSearch(ctx, "batman", batman))
	require.NoError(t, s.RecordSearch(ctx, "batman", batman))

	trending, err := s.Trending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, trending, 2)
	assert.Equal(t, "heat", trending[0].Term)
	assert.Equal(t, "batman", trending[1].Term)

	all, err := s.Trending(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFileStore_TrendingEmpty(t *testing.T) {
	s := newFileStore(t)
	trending, err := s.Trending(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, trending)
	assert.Empty(t, trending)
}

func TestFileStore_CorruptFileStartsFresh(t *testing.T) {
	s := newFileStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0700))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0600))

	require.NoError(t, s.RecordSearch(context.Background(), "heat", heat))

	trending, err := s.Trending(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, trending, 1)
	assert.Equal(t, 1, trending[0].Count)
}

func TestFileStore_FailOpenWhenLocked(t *testing.T) {
	s := newFileStore(t)
	require.NoError(t, os.MkdirAll(s.dir, 0700))

	held := flock.New(s.lockPath())
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = held.Unlock() }()

	start := time.Now()
	require.NoError(t, s.RecordSearch(context.Background(), "heat", heat))
	assert.Less(t, time.Since(start), time.Second, "lock timeout must not hang the caller")
}

func TestFileStore_ConcurrentRecords(t *testing.T) {
	s := newFileStore(t)
	s.now = time.Now

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.RecordSearch(context.Background(), "heat", heat)
		}()
	}
	wg.Wait()

	trending, err := s.Trending(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, trending, 1)
	assert.Positive(t, trending[0].Count)
	assert.LessOrEqual(t, trending[0].Count, 10)

	leftovers, _ := filepath.Glob(filepath.Join(s.dir, "*.tmp"))
	assert.Empty(t, leftovers)
}

func TestNop(t *testing.T) {
	var store Store = Nop{}
	require.NoError(t, store.RecordSearch(context.Background(), "heat", heat))
	trending, err := store.Trending(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, trending)
}
