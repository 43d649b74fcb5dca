package commands

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/reelscout/reelscout/internal/analytics"
	"github.com/reelscout/reelscout/internal/appctx"
	"github.com/reelscout/reelscout/internal/auth"
	"github.com/reelscout/reelscout/internal/config"
	"github.com/reelscout/reelscout/internal/output"
	"github.com/reelscout/reelscout/internal/search"
	"github.com/reelscout/reelscout/internal/tui"
	"github.com/reelscout/reelscout/internal/tui/format"
	"github.com/reelscout/reelscout/internal/tui/views"
)

// NewTUICmd creates the tui command for the interactive search screen.
func NewTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Search movies interactively",
		Long: `Launch a full-screen search. Results update as you type, once the query
has been stable for the debounce interval.

Keys: tab focuses the results, arrows move, ctrl+r searches again,
esc goes back or quits.`,
		Args: cobra.NoArgs,
		RunE: RunTUI,
	}
	AddTUIFlags(cmd)
	return cmd
}

// AddTUIFlags registers the flags RunTUI reads.
func AddTUIFlags(cmd *cobra.Command) {
	cmd.Flags().Int("debounce", -1, "Milliseconds the query must be stable before searching (default from config)")
}

// quietInterval returns the --debounce override or the configured interval.
func quietInterval(cmd *cobra.Command, cfg *config.Config) (time.Duration, error) {
	flag := cmd.Flags().Lookup("debounce")
	if flag == nil || !flag.Changed {
		return cfg.Debounce(), nil
	}
	ms, err := cmd.Flags().GetInt("debounce")
	if err != nil {
		return 0, err
	}
	if ms < 0 || ms > config.MaxDebounceMS {
		return 0, output.ErrUsage(fmt.Sprintf("--debounce must be between 0 and %d", config.MaxDebounceMS))
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// RunTUI runs the interactive search screen until the user quits.
func RunTUI(cmd *cobra.Command, args []string) error {
	app := appctx.FromContext(cmd.Context())
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	quiet, err := quietInterval(cmd, app.Config)
	if err != nil {
		return err
	}
	if app.Auth.Token(auth.TMDB) == "" {
		return output.ErrAuth("No TMDB API token configured")
	}
	if !app.IsInteractive() {
		return output.ErrUsageHint("The interactive search needs a terminal", "Use: reelscout search <query>")
	}

	logFile, err := app.LogToFile()
	if err != nil {
		return err
	}
	defer logFile.Close()

	var store analytics.Store
	store, err = app.Analytics()
	if err != nil {
		app.Logger.Warn("analytics disabled", "error", err)
		store = analytics.Nop{}
	}

	themes, err := tui.WatchTheme(tui.ThemePath())
	if err != nil {
		app.Logger.Warn("theme reload disabled", "error", err)
	}
	defer themes.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	coord := search.New(app.TMDB, store, search.Options{
		Quiet:   quiet,
		Context: ctx,
		Logger:  app.Logger,
	})
	defer coord.Close()

	view := views.NewSearch(coord, views.Options{
		Trending:      store,
		TrendingLimit: analytics.DefaultTrendingLimit,
		Styles:        tui.NewStyles(),
		Locale:        format.NewLocale(app.Config.Language),
		Context:       ctx,
		Themes:        themes,
	})

	app.Logger.Info("tui started", "debounce", quiet, "analytics", app.Config.Analytics)
	p := tea.NewProgram(view, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
