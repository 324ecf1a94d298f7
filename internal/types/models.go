// internal/types/models.go
package types

import "time"

// MovieSummary is the canonical short form of a catalog record.
// A record without an identifier never becomes a MovieSummary.
type MovieSummary struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Rating      *float64 `json:"rating,omitempty"`
	PosterURL   string   `json:"poster_url,omitempty"`
	Year        *int     `json:"year,omitempty"`
}

// MovieDetails holds the credits and runtime of a single movie.
type MovieDetails struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Actors          []string `json:"actors"`
	Directors       []string `json:"directors"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
}

type RequestType string

const (
	RequestMood   RequestType = "mood"
	RequestRandom RequestType = "random"
	RequestSearch RequestType = "search"
)

// RequestLogEntry is one row of the append-only request history.
type RequestLogEntry struct {
	UserID      UserID      `json:"user_id"`
	RequestType RequestType `json:"request_type"`
	Query       string      `json:"query"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Session is the ephemeral per-user conversation state.
type Session struct {
	UserID         UserID `json:"user_id"`
	AwaitingSearch bool   `json:"awaiting_search"`
}
