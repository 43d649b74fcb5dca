// Package fetch provides a keyed, cancelable async data source for Bubble
// Tea programs. Each fetch carries a monotonically increasing token; only
// the completion for the latest token is ever committed.
package fetch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var queryIDs atomic.Uint64

// Func retrieves data for a key.
type Func[K, T any] func(ctx context.Context, key K) (T, error)

// Result is the message a fetch command produces. Hand it back to
// Query.Resolve from the event loop.
type Result[K, T any] struct {
	query uint64
	Token uint64
	Key   K
	Data  T
	Err   error
}

// Query is a typed data source whose fetches supersede one another.
type Query[K, T any] struct {
	mu       sync.RWMutex
	id       uint64
	name     string
	fn       Func[K, T]
	token    uint64
	cancel   context.CancelFunc
	snapshot Snapshot[K, T]
	closed   bool
}

// New creates a Query with the given name and fetch function.
func New[K, T any](name string, fn Func[K, T]) *Query[K, T] {
	return &Query[K, T]{id: queryIDs.Add(1), name: name, fn: fn}
}

// Name returns the query's identifier.
func (q *Query[K, T]) Name() string { return q.name }

// Get returns the current snapshot. Never blocks on a fetch.
func (q *Query[K, T]) Get() Snapshot[K, T] {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.snapshot
}

// Loading reports whether the latest fetch is still in flight.
func (q *Query[K, T]) Loading() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.snapshot.State == StateLoading
}

// Token returns the token of the latest fetch or reset.
func (q *Query[K, T]) Token() uint64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.token
}

// Fetch supersedes any in-flight fetch and returns a Cmd that fetches key
// and yields a Result. Previous data stays visible to Get until the new
// result is resolved. Returns nil after Close.
func (q *Query[K, T]) Fetch(ctx context.Context, key K) tea.Cmd {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.supersedeLocked()
	token := q.token

	fctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.snapshot.Key = key
	q.snapshot.State = StateLoading
	q.snapshot.Err = nil
	q.mu.Unlock()

	id, fn := q.id, q.fn
	return func() tea.Msg {
		data, err := fn(fctx, key)
		return Result[K, T]{query: id, Token: token, Key: key, Data: data, Err: err}
	}
}

// Resolve commits r if it is the completion of the latest fetch and
// reports whether it did. Results from superseded fetches, resets, or
// other queries are discarded.
func (q *Query[K, T]) Resolve(r Result[K, T]) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || r.query != q.id || r.Token != q.token || q.snapshot.State != StateLoading {
		return false
	}

	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}

	if r.Err != nil {
		q.snapshot.State = StateError
		q.snapshot.Err = r.Err
		return true
	}

	q.snapshot.Data = r.Data
	q.snapshot.HasData = true
	q.snapshot.State = StateSuccess
	q.snapshot.FetchedAt = time.Now()
	q.snapshot.Err = nil
	return true
}

// Reset cancels any in-flight fetch and returns to idle with no data and
// no error. Idempotent; never performs I/O.
func (q *Query[K, T]) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.supersedeLocked()
	q.snapshot = Snapshot[K, T]{}
}

// Close resets the query and makes further fetches no-ops.
func (q *Query[K, T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.supersedeLocked()
	q.closed = true
}

func (q *Query[K, T]) supersedeLocked() {
	q.token++
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
}
