// Package appctx provides application context helpers.
package appctx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/charmbracelet/x/term"

	"github.com/reelscout/reelscout/internal/analytics"
	"github.com/reelscout/reelscout/internal/auth"
	"github.com/reelscout/reelscout/internal/config"
	"github.com/reelscout/reelscout/internal/observability"
	"github.com/reelscout/reelscout/internal/output"
	"github.com/reelscout/reelscout/internal/tmdb"
)

// LogFileName is the TUI log file under the cache directory.
const LogFileName = "reelscout.log"

type contextKey string

const appKey contextKey = "app"

// App holds the shared application context for all commands.
type App struct {
	Config *config.Config
	Auth   *auth.Manager
	TMDB   *tmdb.Client
	Output *output.Writer
	Logger *slog.Logger

	// Observability
	Collector *observability.SessionCollector
	Hooks     *observability.CLIHooks

	// Flags holds the global flag values
	Flags GlobalFlags

	stdout io.Writer
	stderr io.Writer

	analyticsOnce  sync.Once
	analyticsStore analytics.Store
	analyticsErr   error
}

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	// Output format flags
	JSON    bool
	Quiet   bool
	MD      bool // Literal Markdown syntax output
	Styled  bool // Force ANSI styled output (even when piped)
	IDsOnly bool
	Count   bool
	JQ      string // jq filter applied to the JSON envelope

	// Behavior flags
	Verbose   int // 0=off, 1=operations, 2=operations+requests (stacks with -v -v or -vv)
	Stats     bool
	CacheDir  string
	Language  string
	Analytics string
}

// Options wires an App's collaborators. Zero values select the defaults.
type Options struct {
	Auth       *auth.Manager
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config, opts Options) *App {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	authMgr := opts.Auth
	if authMgr == nil {
		authMgr = auth.NewManager()
	}

	// Collector always runs to gather stats; ApplyFlags sets the trace level.
	collector := observability.NewSessionCollector()
	hooks := observability.NewCLIHooks(0, collector, observability.NewTraceWriterTo(stderr))

	client := tmdb.NewClient(tmdb.Options{
		BaseURL:      cfg.APIBaseURL,
		Token:        authMgr.Token(auth.TMDB),
		Language:     cfg.Language,
		IncludeAdult: cfg.IncludeAdult,
		HTTPClient:   opts.HTTPClient,
		Hooks:        hooks,
	})

	return &App{
		Config:    cfg,
		Auth:      authMgr,
		TMDB:      client,
		Logger:    slog.New(slog.DiscardHandler),
		Collector: collector,
		Hooks:     hooks,
		stdout:    stdout,
		stderr:    stderr,
		Output: output.New(output.Options{
			Format: output.ParseFormat(cfg.Format),
			Writer: stdout,
		}),
	}
}

// ApplyFlags applies global flag values to output and logging. It fails only
// on an invalid --jq filter.
func (a *App) ApplyFlags() error {
	var format output.Format
	switch {
	case a.Flags.IDsOnly:
		format = output.FormatIDs
	case a.Flags.Count:
		format = output.FormatCount
	case a.Flags.Quiet:
		format = output.FormatQuiet
	case a.Flags.JSON:
		format = output.FormatJSON
	case a.Flags.Styled:
		format = output.FormatStyled
	case a.Flags.MD:
		format = output.FormatMarkdown
	default:
		format = output.ParseFormat(a.Config.Format)
	}
	opts := output.Options{Format: format, Writer: a.stdout}
	if a.Flags.JQ != "" {
		code, err := output.CompileJQ(a.Flags.JQ)
		if err != nil {
			return err
		}
		opts.JQ = code
	}
	a.Output = output.New(opts)

	level := a.VerboseLevel()
	a.Hooks.SetLevel(level)
	if level > 0 {
		a.Logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		a.Hooks.WithLogger(a.Logger)
	}
	return nil
}

// VerboseLevel combines -v flags with REELSCOUT_DEBUG ("1", "2", or "true").
func (a *App) VerboseLevel() int {
	level := a.Flags.Verbose
	if debugEnv := os.Getenv("REELSCOUT_DEBUG"); debugEnv != "" {
		if n, err := strconv.Atoi(debugEnv); err == nil {
			level = max(level, n)
		} else if debugEnv == "true" {
			level = 2
		}
	}
	return level
}

// LogToFile redirects structured logging to <cache_dir>/reelscout.log and
// silences stderr tracing, for full-screen use. The returned closer must be
// called on exit.
func (a *App) LogToFile() (io.Closer, error) {
	if err := os.MkdirAll(a.Config.CacheDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	path := filepath.Join(a.Config.CacheDir, LogFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // G304: path from config
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	level := slog.LevelInfo
	if a.VerboseLevel() > 0 {
		level = slog.LevelDebug
	}
	a.Logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	a.Hooks.SetLevel(0)
	a.Hooks.WithLogger(a.Logger)
	return f, nil
}

// Analytics opens the configured popular-searches store once.
func (a *App) Analytics() (analytics.Store, error) {
	a.analyticsOnce.Do(func() {
		var key string
		if a.Config.Analytics == config.AnalyticsAppwrite {
			key = a.Auth.Token(auth.Appwrite)
		}
		a.analyticsStore, a.analyticsErr = analytics.Open(a.Config, key, a.Hooks)
	})
	return a.analyticsStore, a.analyticsErr
}

// OK outputs a success response, adding session stats when --stats is set.
func (a *App) OK(data any, opts ...output.ResponseOption) error {
	if a.Flags.Stats && a.Collector != nil && !a.isMachineOutput() {
		opts = append(opts, output.WithMeta("stats", a.Collector.Summary().String()))
	}
	return a.Output.OK(data, opts...)
}

// Err outputs an error response, printing stats to stderr if --stats is set.
func (a *App) Err(err error) error {
	if outputErr := a.Output.Err(err); outputErr != nil {
		return outputErr
	}
	if a.Flags.Stats && a.Collector != nil && !a.isMachineOutput() {
		a.PrintStats()
	}
	return nil
}

// PrintStats writes the session stats line to stderr.
func (a *App) PrintStats() {
	fmt.Fprintf(a.stderr, "\nStats: %s\n", a.Collector.Summary())
}

// isMachineOutput returns true if the output mode is intended for programmatic consumption.
func (a *App) isMachineOutput() bool {
	if a.Flags.Quiet || a.Flags.IDsOnly || a.Flags.Count || a.Flags.JQ != "" {
		return true
	}
	return a.Config != nil && a.Config.Format == "quiet"
}

// Stdout returns the writer commands print to.
func (a *App) Stdout() io.Writer { return a.stdout }

// Stderr returns the writer for diagnostics.
func (a *App) Stderr() io.Writer { return a.stderr }

// IsInteractive returns true if stdin and stdout are both terminals and no
// machine output mode is selected.
func (a *App) IsInteractive() bool {
	if a.Flags.JSON || a.Flags.Quiet || a.Flags.IDsOnly || a.Flags.Count || a.Flags.JQ != "" {
		return false
	}
	out, ok := a.stdout.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(out.Fd()) {
		return false
	}
	return term.IsTerminal(os.Stdin.Fd())
}

// WithApp stores the app in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from the context.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}
