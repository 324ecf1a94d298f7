// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes history entries older than a cutoff. *history.Store
// implements it.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler prunes the request history on a cron schedule.
type Scheduler struct {
	pruner    Pruner
	schedule  string
	retention time.Duration
	now       func() time.Time
	cron      *cron.Cron
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a Scheduler that removes entries older than retentionDays.
// A retentionDays of zero keeps history forever and Start registers nothing.
func New(pruner Pruner, schedule string, retentionDays int) *Scheduler {
	return &Scheduler{
		pruner:    pruner,
		schedule:  schedule,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
		cron:      cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the prune job and starts the cron ticker.
func (s *Scheduler) Start() error {
	if s.retention <= 0 {
		slog.Info("history retention disabled, keeping all entries")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.PruneOnce); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	slog.Info("scheduled history pruning", "schedule", s.schedule, "retention", s.retention)
	return nil
}

// PruneOnce deletes entries older than the retention window.
func (s *Scheduler) PruneOnce() {
	cutoff := s.now().Add(-s.retention)
	n, err := s.pruner.Prune(context.Background(), cutoff)
	if err != nil {
		slog.Error("history prune failed", "cutoff", cutoff, "error", err)
		return
	}
	slog.Info("history pruned", "removed", n, "cutoff", cutoff)
}

// Stop stops the cron ticker and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
