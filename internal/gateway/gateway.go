// Package gateway schedules inbound chat events. Events of one user run in
// order; different users are handled concurrently up to a global limit.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/kinobot/internal/types"
)

// Gateway wraps each inbound event in a Run and enqueues it on the
// sender's lane.
type Gateway struct {
	Queue *Queue

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Gateway with the given concurrency limit.
func New(maxConcurrent ...int64) *Gateway {
	var concurrency int64 = 4
	if len(maxConcurrent) > 0 && maxConcurrent[0] > 0 {
		concurrency = maxConcurrent[0]
	}
	g := &Gateway{Queue: NewQueue(concurrency)}
	g.Queue.SetProcessor(ProcessRun)
	return g
}

// Start initialises the gateway's context and starts the internal queue.
func (g *Gateway) Start(ctx context.Context) {
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.Queue.Start(g.ctx)
}

// Stop cancels the gateway context and stops the queue.
func (g *Gateway) Stop() {
	if g.cancel != nil {
		g.cancel()
	}
	g.Queue.Stop()
}

// Dispatch enqueues handle for the user. kind names the event for logs.
func (g *Gateway) Dispatch(userID types.UserID, kind string, handle HandlerFunc) error {
	run := NewRun(userID, kind, handle)
	if err := g.Queue.Enqueue(run); err != nil {
		return fmt.Errorf("enqueue %s event: %w", kind, err)
	}
	return nil
}

// ProcessRun executes a run's handler and records its outcome.
func ProcessRun(run *Run) error {
	started := time.Now()
	run.StartedAt = &started
	run.Status = RunStatusRunning

	ctx := run.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	err := run.Handle(ctx)

	ended := time.Now()
	run.EndedAt = &ended
	if err != nil {
		run.Status = RunStatusFailed
		run.Error = err
		return err
	}
	run.Status = RunStatusComplete
	slog.Debug("run complete", "run_id", string(run.ID), "user_id", run.UserID, "kind", run.Kind, "duration", ended.Sub(started))
	return nil
}
