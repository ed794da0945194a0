package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/simaogato/pricewatch-backend/internal/domain"
	"github.com/simaogato/pricewatch-backend/internal/obs"
	"github.com/simaogato/pricewatch-backend/internal/usecase/cycle"
)

// CycleRunner runs one cycle for a user
type CycleRunner interface {
	RunCycle(ctx context.Context, userID int64) (*cycle.Result, error)
}

// Scheduler periodically runs a cycle for every user with active tracked items
type Scheduler struct {
	UserRepo domain.UserRepository
	Runner   CycleRunner
	Interval time.Duration
}

// NewScheduler creates a new Scheduler instance
func NewScheduler(userRepo domain.UserRepository, runner CycleRunner, interval time.Duration) *Scheduler {
	return &Scheduler{
		UserRepo: userRepo,
		Runner:   runner,
		Interval: interval,
	}
}

// Run ticks until ctx is done. Ticks are handled on the calling goroutine,
// so a slow tick delays the next one instead of overlapping it.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.Interval)
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	obs.Logger.Info("scheduler_started", "interval", s.Interval.String())
	for {
		select {
		case <-ctx.Done():
			obs.Logger.Info("scheduler_stopped")
			return nil
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				obs.Logger.Error("scheduler_tick_failed", "error", err)
			}
		}
	}
}

// Tick runs one cycle per user owning active items, one user after the other.
// A failed cycle is logged and does not stop the remaining users.
func (s *Scheduler) Tick(ctx context.Context) error {
	userIDs, err := s.UserRepo.ListWithActiveItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users with active items: %w", err)
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.Runner.RunCycle(ctx, userID); err != nil {
			obs.Logger.Error("scheduled_cycle_failed", "user_id", userID, "error", err)
		}
	}
	return nil
}
