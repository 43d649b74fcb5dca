// Package empty provides empty state messages for TUI components.
package empty

// Message represents an empty state message with optional hints.
type Message struct {
	Title   string
	Body    string
	Hints   []string
	Command string // suggested command to run
}

// StartSearching is shown before anything has been typed.
func StartSearching() Message {
	return Message{
		Title: "Search for a movie to get started",
		Hints: []string{"Type a title, then wait a moment for results"},
	}
}

// NoSearchResults is shown when a search finished with no movies.
func NoSearchResults(query string) Message {
	return Message{
		Title: "No movies found for " + query,
		Hints: []string{
			"Try a different search term",
			"Check spelling",
		},
	}
}

// NoTrending is shown when no searches have been recorded yet.
func NoTrending() Message {
	return Message{
		Title: "No trending searches yet",
		Body:  "Searches you run will be counted here.",
	}
}

// AuthRequired returns an error state for a missing TMDB token.
func AuthRequired() Message {
	return Message{
		Title:   "TMDB token required",
		Body:    "reelscout needs a TMDB API read access token.",
		Hints:   []string{"Run: reelscout auth login"},
		Command: "reelscout auth login",
	}
}

// NetworkError returns an error state for network issues.
func NetworkError() Message {
	return Message{
		Title: "Connection error",
		Body:  "Could not reach TMDB.",
		Hints: []string{
			"Check your internet connection",
			"Press ctrl+r to try again",
		},
	}
}
