// internal/types/interfaces.go
package types

import "context"

// Catalog is the movie data service the conversation router talks to.
// Implementations resolve retries internally; a returned error is final.
type Catalog interface {
	FetchByGenre(ctx context.Context, genre string, limit int) ([]MovieSummary, error)
	FetchRandom(ctx context.Context) (*MovieSummary, error)
	SearchByName(ctx context.Context, query string, limit int) ([]MovieSummary, error)
	FetchDetails(ctx context.Context, id int) (*MovieDetails, error)
}

type HistoryLog interface {
	Append(ctx context.Context, entry RequestLogEntry) error
	Recent(ctx context.Context, userID UserID, limit int) ([]RequestLogEntry, error)
}

type SessionStore interface {
	Get(userID UserID) Session
	Update(userID UserID, fn func(Session) Session) Session
	Reset(userID UserID)
}
