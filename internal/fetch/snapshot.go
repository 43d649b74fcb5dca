package fetch

import "time"

// State is the lifecycle state of a Query.
type State int

const (
	StateIdle    State = iota // never fetched, or reset
	StateLoading              // fetch in flight (may hold previous data)
	StateSuccess              // latest fetch succeeded
	StateError                // latest fetch failed (may hold previous data)
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot holds typed data along with its fetch state.
type Snapshot[K, T any] struct {
	Key       K // key of the latest fetch
	Data      T
	State     State
	Err       error
	FetchedAt time.Time
	HasData   bool // distinguishes zero-value T from "never fetched"
}

// Loading returns true if a fetch is in progress.
func (s Snapshot[K, T]) Loading() bool {
	return s.State == StateLoading
}

// Succeeded returns true if the latest fetch committed data.
func (s Snapshot[K, T]) Succeeded() bool {
	return s.State == StateSuccess && s.HasData
}
