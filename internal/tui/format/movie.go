package format

import (
	"time"

	"github.com/reelscout/reelscout/internal/tmdb"
)

// Year returns the release year, or "TBA" when unknown.
func Year(m tmdb.Movie) string {
	if y := m.Year(); y != "" {
		return y
	}
	return "TBA"
}

// Rating renders a vote average as "★ 7.8". Unrated movies render "★ N/A".
func (l Locale) Rating(m tmdb.Movie) string {
	if m.VoteCount == 0 && m.VoteAverage == 0 {
		return "★ N/A"
	}
	return "★ " + l.Decimal(m.VoteAverage)
}

// Votes renders "1,234 votes" with singular handling.
func (l Locale) Votes(n int) string {
	if n == 1 {
		return "1 vote"
	}
	return l.Count(n) + " votes"
}

// Searches renders a trending counter, "12 searches".
func (l Locale) Searches(n int) string {
	if n == 1 {
		return "1 search"
	}
	return l.Count(n) + " searches"
}

// ReleaseDate formats the TMDB YYYY-MM-DD date for the locale. Unparseable
// dates are returned unchanged.
func (l Locale) ReleaseDate(m tmdb.Movie) string {
	t, err := time.Parse(time.DateOnly, m.ReleaseDate)
	if err != nil {
		return m.ReleaseDate
	}
	return l.Date(t)
}
