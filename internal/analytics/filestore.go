package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"

	"github.com/reelscout/reelscout/internal/tmdb"
)

const (
	// FileName is the search log inside the store directory.
	FileName = "searches.json"

	// DirName is the subdirectory within the cache dir.
	DirName = "analytics"

	fileVersion = 1
)

// LockTimeout is the maximum time to wait for acquiring the file lock.
// If exceeded, operations proceed without locking (fail-open) so a stuck
// process never blocks searching.
const LockTimeout = 100 * time.Millisecond

// ErrEmptyTerm is returned when recording a blank search term.
var ErrEmptyTerm = errors.New("search term is empty")

type searchFile struct {
	Version  int                `json:"version"`
	Searches map[string]*Search `json:"searches"`
}

// FileStore keeps search counts in a JSON file shared across processes.
type FileStore struct {
	dir          string
	imageBaseURL string
	now          func() time.Time
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir, imageBaseURL string) *FileStore {
	return &FileStore{dir: dir, imageBaseURL: imageBaseURL, now: time.Now}
}

// Path returns the full path to the search log.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, FileName)
}

func (s *FileStore) lockPath() string {
	return filepath.Join(s.dir, ".lock")
}

// RecordSearch increments the count for term, creating it with movie on first use.
func (s *FileStore) RecordSearch(ctx context.Context, term string, movie tmdb.Movie) error {
	key := normalizeTerm(term)
	if key == "" {
		return ErrEmptyTerm
	}

	return s.update(ctx, func(f *searchFile) {
		if existing, ok := f.Searches[key]; ok {
			existing.Count++
			existing.UpdatedAt = s.now().UTC()
			return
		}
		f.Searches[key] = &Search{
			Term:      key,
			Count:     1,
			MovieID:   movie.ID,
			Title:     movie.Title,
			PosterURL: movie.PosterURL(s.imageBaseURL),
			UpdatedAt: s.now().UTC(),
		}
	})
}

// Trending returns up to limit searches ordered by count.
func (s *FileStore) Trending(ctx context.Context, limit int) ([]Search, error) {
	lock, err := s.acquireLock(ctx)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	f, err := s.load()
	if err != nil {
		return nil, err
	}

	searches := make([]Search, 0, len(f.Searches))
	for _, search := range f.Searches {
		searches = append(searches, *search)
	}
	sortTrending(searches)

	if limit > 0 && len(searches) > limit {
		searches = searches[:limit]
	}
	return searches, nil
}

func (s *FileStore) update(ctx context.Context, fn func(*searchFile)) error {
	lock, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer lock.release()

	f, err := s.load()
	if err != nil {
		return err
	}
	fn(f)
	return s.save(f)
}

// fileLock is an acquired lock; a nil *fileLock means we proceeded unlocked.
type fileLock struct {
	flock *flock.Flock
}

// acquireLock obtains an exclusive lock on the store directory. It returns
// a nil lock without error when LockTimeout elapses.
func (s *FileStore) acquireLock(ctx context.Context) (*fileLock, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return nil, err
	}

	fl := flock.New(s.lockPath())

	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(lockCtx, 10*time.Millisecond)
	if err != nil {
		if errors.Is(lockCtx.Err(), context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, err
	}
	if !locked {
		return nil, nil
	}
	return &fileLock{flock: fl}, nil
}

func (fl *fileLock) release() {
	if fl == nil || fl.flock == nil {
		return
	}
	_ = fl.flock.Unlock()
}

// load reads the search log (caller must hold lock). A missing or corrupt
// file yields an empty log.
func (s *FileStore) load() (*searchFile, error) {
	empty := &searchFile{Version: fileVersion, Searches: map[string]*Search{}}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		return nil, err
	}

	var f searchFile
	if err := json.Unmarshal(data, &f); err != nil {
		return empty, nil
	}
	if f.Searches == nil {
		f.Searches = map[string]*Search{}
	}
	return &f, nil
}

// save writes the search log atomically (caller must hold lock).
func (s *FileStore) save(f *searchFile) error {
	f.Version = fileVersion

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	// Unique temp name so unlocked writers never collide.
	tmpPath := fmt.Sprintf("%s.%d.%d.tmp", s.Path(), os.Getpid(), time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	if runtime.GOOS == "windows" {
		_ = os.Remove(s.Path())
	}

	if err := os.Rename(tmpPath, s.Path()); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
