package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reelscout/reelscout/internal/appctx"
	"github.com/reelscout/reelscout/internal/output"
	"github.com/reelscout/reelscout/internal/tmdb"
)

// movieRow is the printed shape of a movie.
type movieRow struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Year        string  `json:"year"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	PosterURL   string  `json:"poster_url"`
}

func movieRows(movies []tmdb.Movie, imageBaseURL string, limit int) []movieRow {
	if limit > 0 && len(movies) > limit {
		movies = movies[:limit]
	}
	rows := make([]movieRow, 0, len(movies))
	for _, m := range movies {
		rows = append(rows, movieRow{
			ID:          m.ID,
			Title:       m.Title,
			Year:        m.Year(),
			VoteAverage: m.VoteAverage,
			VoteCount:   m.VoteCount,
			PosterURL:   m.PosterURL(imageBaseURL),
		})
	}
	return rows
}

// NewSearchCmd creates the one-shot search command.
func NewSearchCmd() *cobra.Command {
	var limit int
	var noRecord bool

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search movies by title",
		Long: `Search TMDB for movies matching a title.

The first result is recorded as a popular search unless --no-record is set.`,
		Example: `  reelscout search the matrix
  reelscout search dune --limit 3 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}
			if limit < 0 {
				return output.ErrUsage("--limit must not be negative")
			}

			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				return output.ErrUsage("Search query required")
			}

			movies, err := app.TMDB.SearchMovies(cmd.Context(), query)
			if err != nil {
				return err
			}

			if len(movies) > 0 && !noRecord {
				recordSearch(cmd, app, query, movies[0])
			}

			summary := fmt.Sprintf("%d movies matching %q", len(movies), query)
			if len(movies) == 0 {
				summary = "No movies found for " + query
			}
			return app.OK(movieRows(movies, app.Config.ImageBaseURL, limit),
				output.WithSummary(summary),
				output.WithBreadcrumbs(
					output.Breadcrumb{
						Action:      "trending",
						Cmd:         "reelscout trending",
						Description: "Show popular searches",
					},
				),
			)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results to print (0 = all)")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "Don't count this search in analytics")

	return cmd
}

// recordSearch counts a completed search. Failures are logged; the search
// itself already succeeded.
func recordSearch(cmd *cobra.Command, app *appctx.App, query string, first tmdb.Movie) {
	store, err := app.Analytics()
	if err != nil {
		app.Logger.Warn("analytics unavailable", "error", err)
		return
	}
	if err := store.RecordSearch(cmd.Context(), query, first); err != nil {
		app.Logger.Warn("recording search failed", "query", query, "error", err)
		return
	}
	app.Logger.Debug("recorded search", "query", query, "movie_id", first.ID)
}

// NewDiscoverCmd creates the popular movies command.
func NewDiscoverCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List popular movies",
		Long:  "List movies from TMDB discover, sorted by popularity.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}
			if limit < 0 {
				return output.ErrUsage("--limit must not be negative")
			}

			movies, err := app.TMDB.DiscoverMovies(cmd.Context())
			if err != nil {
				return err
			}

			return app.OK(movieRows(movies, app.Config.ImageBaseURL, limit),
				output.WithSummary(fmt.Sprintf("%d popular movies", len(movies))),
				output.WithBreadcrumbs(
					output.Breadcrumb{
						Action:      "search",
						Cmd:         "reelscout search <query>",
						Description: "Search by title",
					},
				),
			)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results to print (0 = all)")

	return cmd
}
