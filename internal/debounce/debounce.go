// Package debounce provides a cancelable quiet-period timer for Bubble Tea
// programs.
//
// A Debouncer is owned by a single event loop: Schedule, CancelPending and
// Accept must all be called from that loop (typically a model's Update).
// Only the command returned by Schedule runs elsewhere.
package debounce

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var debouncerIDs atomic.Uint64

// Fired is delivered when a scheduled quiet period elapses.
type Fired[T any] struct {
	debouncer uint64
	seq       uint64
	Value     T
}

// Debouncer holds at most one pending timer. Scheduling a new value cancels
// the previous timer, so only the last value of a burst is ever delivered.
type Debouncer[T any] struct {
	id      uint64
	seq     uint64
	timer   *time.Timer
	cancel  chan struct{}
	pending bool
}

// New creates a Debouncer with no pending timer.
func New[T any]() *Debouncer[T] {
	return &Debouncer[T]{id: debouncerIDs.Add(1)}
}

// Schedule cancels any pending timer and starts a new one for value. The
// returned command blocks until the timer elapses, yielding Fired[T], or
// until the schedule is superseded or canceled, yielding nil.
func (d *Debouncer[T]) Schedule(value T, delay time.Duration) tea.Cmd {
	d.CancelPending()

	d.seq++
	seq, id := d.seq, d.id
	fired := make(chan struct{})
	cancel := make(chan struct{})

	d.cancel = cancel
	d.timer = time.AfterFunc(delay, func() { close(fired) })
	d.pending = true

	return func() tea.Msg {
		select {
		case <-fired:
			return Fired[T]{debouncer: id, seq: seq, Value: value}
		case <-cancel:
			return nil
		}
	}
}

// CancelPending stops the pending timer, if any, and releases its command.
func (d *Debouncer[T]) CancelPending() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		close(d.cancel)
		d.cancel = nil
	}
	d.pending = false
}

// Accept reports whether msg belongs to this debouncer's latest schedule.
// An accepted message consumes the pending schedule; stale, canceled, or
// foreign messages are rejected.
func (d *Debouncer[T]) Accept(msg Fired[T]) (T, bool) {
	if msg.debouncer != d.id || msg.seq != d.seq || !d.pending {
		var zero T
		return zero, false
	}
	d.pending = false
	d.timer = nil
	d.cancel = nil
	return msg.Value, true
}

// Pending reports whether a schedule is waiting to fire.
func (d *Debouncer[T]) Pending() bool {
	return d.pending
}
