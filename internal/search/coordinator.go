// Package search coordinates debounced movie searches.
//
// A Coordinator turns keystrokes into at most one search per quiet period.
// The raw query is updated on every keystroke; the debounced query follows
// it once it has been stable for the quiet interval. Each change of the
// debounced query either fetches results (non-blank) or resets them
// (blank). Completions for superseded queries are discarded, and the first
// result of each successful search is handed to the analytics recorder.
//
// All methods must be called from the owning Bubble Tea event loop.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/reelscout/reelscout/internal/analytics"
	"github.com/reelscout/reelscout/internal/debounce"
	"github.com/reelscout/reelscout/internal/fetch"
	"github.com/reelscout/reelscout/internal/tmdb"
)

// DefaultQuiet is the quiet interval used when none is configured.
const DefaultQuiet = 500 * time.Millisecond

// Searcher finds movies matching a query.
type Searcher interface {
	SearchMovies(ctx context.Context, query string) ([]tmdb.Movie, error)
}

// Results is the state of the movie result set.
type Results = fetch.Snapshot[string, []tmdb.Movie]

// Completed describes a search that produced results.
type Completed struct {
	Query string
	Movie tmdb.Movie // first result
	Count int        // number of results
}

// RecordedMsg reports the outcome of recording a completed search.
type RecordedMsg struct {
	Completed
	Err error
}

// Options configures a Coordinator.
type Options struct {
	// Quiet is how long the query must be stable before it is searched.
	// Zero fires on the next scheduler tick.
	Quiet time.Duration

	// Context bounds every fetch and recording. Defaults to Background.
	Context context.Context

	Logger *slog.Logger
}

// Coordinator owns the query, the debounced query, and the result set.
type Coordinator struct {
	quiet    time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *slog.Logger
	recorder analytics.Recorder

	debouncer *debounce.Debouncer[string]
	movies    *fetch.Query[string, []tmdb.Movie]

	query     string
	debounced string
	mounted   bool

	// unrecorded is set on every debounced transition and cleared once
	// that transition's results have been handed to the recorder.
	unrecorded bool
}

// New creates a Coordinator. A nil recorder disables analytics.
func New(searcher Searcher, recorder analytics.Recorder, opts Options) *Coordinator {
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if recorder == nil {
		recorder = analytics.Nop{}
	}

	return &Coordinator{
		quiet:     opts.Quiet,
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
		recorder:  recorder,
		debouncer: debounce.New[string](),
		movies: fetch.New("movies", func(ctx context.Context, q string) ([]tmdb.Movie, error) {
			return searcher.SearchMovies(ctx, q)
		}),
	}
}

// Init performs the mount reaction for the initial empty debounced query.
func (c *Coordinator) Init() tea.Cmd {
	if c.mounted {
		return nil
	}
	c.mounted = true
	return c.react()
}

// Query returns the raw query.
func (c *Coordinator) Query() string { return c.query }

// DebouncedQuery returns the last query that was stable for the quiet interval.
func (c *Coordinator) DebouncedQuery() string { return c.debounced }

// Results returns the current result set state.
func (c *Coordinator) Results() Results { return c.movies.Get() }

// Loading reports whether a search is in flight.
func (c *Coordinator) Loading() bool { return c.movies.Loading() }

// SetQuery replaces the raw query and restarts the quiet period. Any
// pending timer is canceled; the debounced query is untouched until the
// new timer fires.
func (c *Coordinator) SetQuery(text string) tea.Cmd {
	c.query = text
	return c.debouncer.Schedule(text, c.quiet)
}

// Retry searches the current debounced query again. It is a no-op when the
// debounced query is blank.
func (c *Coordinator) Retry() tea.Cmd {
	if isBlank(c.debounced) {
		return nil
	}
	c.logger.Debug("re-search", "query", c.debounced)
	return c.movies.Fetch(c.ctx, c.debounced)
}

// Update handles coordinator messages and ignores everything else.
func (c *Coordinator) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case debounce.Fired[string]:
		v, ok := c.debouncer.Accept(msg)
		if !ok {
			return nil
		}
		return c.setDebounced(v)

	case fetch.Result[string, []tmdb.Movie]:
		if !c.movies.Resolve(msg) {
			c.logger.Debug("discarded stale results", "query", msg.Key)
			return nil
		}
		if msg.Err != nil {
			c.logger.Debug("search failed", "query", msg.Key, "error", msg.Err)
			return nil
		}
		c.logger.Debug("search completed", "query", msg.Key, "results", len(msg.Data))
		if len(msg.Data) == 0 || !c.unrecorded {
			return nil
		}
		c.unrecorded = false
		return c.record(Completed{Query: msg.Key, Movie: msg.Data[0], Count: len(msg.Data)})

	case RecordedMsg:
		if msg.Err != nil {
			c.logger.Warn("record search failed", "query", msg.Query, "error", msg.Err)
		}
		return nil
	}
	return nil
}

// Close cancels the pending timer, any in-flight fetch, and any pending
// recording.
func (c *Coordinator) Close() {
	c.debouncer.CancelPending()
	c.movies.Close()
	c.cancel()
}

func (c *Coordinator) setDebounced(v string) tea.Cmd {
	if c.mounted && v == c.debounced {
		return nil
	}
	c.debounced = v
	c.mounted = true
	return c.react()
}

// react fetches for a non-blank debounced query and resets otherwise.
func (c *Coordinator) react() tea.Cmd {
	if isBlank(c.debounced) {
		c.unrecorded = false
		c.movies.Reset()
		return nil
	}
	c.unrecorded = true
	c.logger.Debug("search", "query", c.debounced)
	return c.movies.Fetch(c.ctx, c.debounced)
}

func (c *Coordinator) record(done Completed) tea.Cmd {
	ctx, recorder := c.ctx, c.recorder
	return func() tea.Msg {
		err := recorder.RecordSearch(ctx, done.Query, done.Movie)
		return RecordedMsg{Completed: done, Err: err}
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
