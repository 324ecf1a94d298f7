package gateway

import (
	"context"
	"time"

	"github.com/user/kinobot/internal/types"
)

// RunStatus represents the lifecycle state of a Run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// HandlerFunc handles one inbound chat event.
type HandlerFunc func(ctx context.Context) error

// Run tracks the handling of a single inbound event for a user.
type Run struct {
	ID        types.RunID
	UserID    types.UserID
	Kind      string
	Status    RunStatus
	CreatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time
	Error     error
	Handle    HandlerFunc
	Ctx       context.Context
}

// NewRun creates a Run in the Queued state.
func NewRun(userID types.UserID, kind string, handle HandlerFunc) *Run {
	return &Run{
		ID:        types.NewRunID(),
		UserID:    userID,
		Kind:      kind,
		Status:    RunStatusQueued,
		CreatedAt: time.Now(),
		Handle:    handle,
	}
}
