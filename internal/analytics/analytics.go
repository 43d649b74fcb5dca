// Package analytics records popular searches and reports the trending ones.
package analytics

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/reelscout/reelscout/internal/tmdb"
)

// DefaultTrendingLimit is how many searches Trending reports by default.
const DefaultTrendingLimit = 5

// Search is one recorded search term and the movie it first surfaced.
type Search struct {
	Term      string    `json:"term"`
	Count     int       `json:"count"`
	MovieID   int64     `json:"movie_id"`
	Title     string    `json:"title"`
	PosterURL string    `json:"poster_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recorder persists search events.
type Recorder interface {
	RecordSearch(ctx context.Context, term string, movie tmdb.Movie) error
}

// Store is a Recorder that can also report the most popular searches.
type Store interface {
	Recorder
	Trending(ctx context.Context, limit int) ([]Search, error)
}

// Nop discards every search.
type Nop struct{}

func (Nop) RecordSearch(context.Context, string, tmdb.Movie) error { return nil }

func (Nop) Trending(context.Context, int) ([]Search, error) { return []Search{}, nil }

// normalizeTerm is the key searches are counted under.
func normalizeTerm(term string) string {
	return strings.TrimSpace(term)
}

// sortTrending orders by count descending, most recent first on ties.
func sortTrending(searches []Search) {
	sort.SliceStable(searches, func(i, j int) bool {
		if searches[i].Count != searches[j].Count {
			return searches[i].Count > searches[j].Count
		}
		if !searches[i].UpdatedAt.Equal(searches[j].UpdatedAt) {
			return searches[i].UpdatedAt.After(searches[j].UpdatedAt)
		}
		return searches[i].Term < searches[j].Term
	})
}
