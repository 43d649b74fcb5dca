// Package tmdb provides an HTTP client for The Movie Database API.
package tmdb

import "strings"

// PlaceholderPoster is shown for movies without artwork.
const PlaceholderPoster = "https://placehold.co/600x400/1a1a1a/FFFFFF.png"

// Movie is a single search or discover result.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	Overview         string  `json:"overview,omitempty"`
	PosterPath       string  `json:"poster_path,omitempty"`
	BackdropPath     string  `json:"backdrop_path,omitempty"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity,omitempty"`
	Adult            bool    `json:"adult"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	GenreIDs         []int   `json:"genre_ids,omitempty"`
}

// Year returns the release year, or "" when the date is missing or malformed.
func (m Movie) Year() string {
	year, _, ok := strings.Cut(m.ReleaseDate, "-")
	if !ok || len(year) != 4 {
		return ""
	}
	return year
}

// PosterURL joins the poster path onto an image base URL.
func (m Movie) PosterURL(base string) string {
	if m.PosterPath == "" {
		return PlaceholderPoster
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(m.PosterPath, "/")
}

// page is the paginated envelope TMDB wraps list results in.
type page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}
