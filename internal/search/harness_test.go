package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/reelscout/reelscout/internal/tmdb"
)

const quiet = 40 * time.Millisecond

// fakeSearcher returns one movie per query unless told otherwise. Queries
// with a gate block until the gate is closed, ignoring cancellation, so
// tests can force completions to arrive late.
type fakeSearcher struct {
	mu      sync.Mutex
	calls   []string
	starts  []time.Time
	gates   map[string]chan struct{}
	errs    map[string]error
	results map[string][]tmdb.Movie
	started chan string
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		gates:   map[string]chan struct{}{},
		errs:    map[string]error{},
		results: map[string][]tmdb.Movie{},
		started: make(chan string, 64),
	}
}

func (f *fakeSearcher) SearchMovies(ctx context.Context, q string) ([]tmdb.Movie, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	f.starts = append(f.starts, time.Now())
	gate := f.gates[q]
	err := f.errs[q]
	res, ok := f.results[q]
	f.mu.Unlock()

	f.started <- q
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		res = []tmdb.Movie{{ID: int64(len(q)), Title: strings.ToUpper(q)}, {ID: 1000, Title: "Other"}}
	}
	return res, nil
}

func (f *fakeSearcher) gate(q string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[q] = ch
	return ch
}

func (f *fakeSearcher) fail(q string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, q)
		return
	}
	f.errs[q] = err
}

func (f *fakeSearcher) respond(q string, movies []tmdb.Movie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[q] = movies
}

func (f *fakeSearcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Starts returns when each call reached the searcher.
func (f *fakeSearcher) Starts() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.starts...)
}

type recordedSearch struct {
	term  string
	movie tmdb.Movie
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedSearch
	err   error
}

func (r *fakeRecorder) RecordSearch(_ context.Context, term string, movie tmdb.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedSearch{term, movie})
	return r.err
}

func (r *fakeRecorder) Calls() []recordedSearch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedSearch(nil), r.calls...)
}

// harness is a minimal Bubble Tea runtime: commands run on their own
// goroutines and their messages are fed back to the coordinator on the
// test goroutine, which plays the event loop.
type harness struct {
	t        *testing.T
	c        *Coordinator
	searcher *fakeSearcher
	recorder *fakeRecorder
	msgs     chan tea.Msg
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		searcher: newFakeSearcher(),
		recorder: &fakeRecorder{},
		msgs:     make(chan tea.Msg, 64),
	}
	h.c = New(h.searcher, h.recorder, Options{Quiet: quiet})
	t.Cleanup(func() {
		h.c.Close()
		h.searcher.mu.Lock()
		for q, g := range h.searcher.gates {
			select {
			case <-g:
			default:
				close(g)
			}
			delete(h.searcher.gates, q)
		}
		h.searcher.mu.Unlock()
	})
	h.exec(h.c.Init())
	return h
}

func (h *harness) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() { h.msgs <- cmd() }()
}

func (h *harness) handle(msg tea.Msg) {
	switch m := msg.(type) {
	case nil:
	case tea.BatchMsg:
		for _, cmd := range m {
			h.exec(cmd)
		}
	default:
		h.exec(h.c.Update(msg))
	}
}

func (h *harness) typeText(text string) {
	h.exec(h.c.SetQuery(text))
}

// pumpFor processes messages for d.
func (h *harness) pumpFor(d time.Duration) {
	deadline := time.After(d)
	for {
		select {
		case msg := <-h.msgs:
			h.handle(msg)
		case <-deadline:
			return
		}
	}
}

// pumpUntil processes messages until cond holds.
func (h *harness) pumpUntil(what string, cond func() bool) {
	h.t.Helper()
	timeout := time.After(2 * time.Second)
	for !cond() {
		select {
		case msg := <-h.msgs:
			h.handle(msg)
		case <-timeout:
			h.t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func (h *harness) waitStarted(q string) {
	h.t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-h.searcher.started:
			if got == q {
				return
			}
		case msg := <-h.msgs:
			h.handle(msg)
		case <-timeout:
			h.t.Fatalf("fetch for %q never started", q)
		}
	}
}

func (h *harness) settled() bool {
	return !h.c.debouncer.Pending() && !h.c.Loading()
}

var errUnauthorized = errors.New("Failed to fetch movies: Unauthorized")
