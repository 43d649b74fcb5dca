package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reelscout/reelscout/internal/analytics"
	"github.com/reelscout/reelscout/internal/appctx"
	"github.com/reelscout/reelscout/internal/output"
)

// trendingRow is one ranked popular search.
type trendingRow struct {
	Rank      int    `json:"rank"`
	Term      string `json:"term"`
	Count     int    `json:"count"`
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	PosterURL string `json:"poster_url"`
}

// NewTrendingCmd creates the popular searches command.
func NewTrendingCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Show the most popular searches",
		Long: `Show the most popular recorded searches, most searched first.

Searches are recorded by the interactive screen and by "reelscout search".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}
			if limit < 1 {
				return output.ErrUsage("--limit must be at least 1")
			}

			store, err := app.Analytics()
			if err != nil {
				return err
			}
			searches, err := store.Trending(cmd.Context(), limit)
			if err != nil {
				return err
			}

			rows := make([]trendingRow, 0, len(searches))
			for i, s := range searches {
				rows = append(rows, trendingRow{
					Rank:      i + 1,
					Term:      s.Term,
					Count:     s.Count,
					ID:        s.MovieID,
					Title:     s.Title,
					PosterURL: s.PosterURL,
				})
			}

			summary := fmt.Sprintf("Top %d searches", len(rows))
			if len(rows) == 0 {
				summary = "No searches recorded yet"
			}
			return app.OK(rows,
				output.WithSummary(summary),
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

	cmd.Flags().IntVarP(&limit, "limit", "n", analytics.DefaultTrendingLimit, "Number of searches to show")

	return cmd
}
