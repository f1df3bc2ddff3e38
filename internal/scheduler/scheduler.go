package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/i474232898/quickcheck/internal/covid"
)

// cycleTimeout bounds a whole refresh cycle, including waiting for a cycle
// already in flight.
const cycleTimeout = 2 * time.Minute

// Refresher is the part of covid.Service the scheduler drives.
type Refresher interface {
	RefreshIfDue(ctx context.Context, now time.Time) (covid.RefreshPlan, bool, error)
}

// Scheduler periodically checks whether the current plan expired and, if so,
// requests a new one. Plans are never refreshed before their ValidUntil.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	interval  time.Duration
	now       func() time.Time
}

// New creates a new Scheduler.
func New(interval time.Duration, service Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		interval:  interval,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules the periodic check and starts the underlying scheduler.
// The first check runs immediately so a plan exists right after startup.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	s.scheduler.SingletonModeAll()
	_, err := s.scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce performs a single due-check and refresh. It reports whether a
// refresh cycle ran.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	runID := uuid.NewString()
	now := s.now()

	plan, ran, err := s.service.RefreshIfDue(ctx, now)
	switch {
	case err != nil && errors.Is(err, covid.ErrSuperseded):
		log.Printf("scheduler: run %s superseded by a newer refresh", runID)
	case err != nil:
		log.Printf("scheduler: run %s failed: %v", runID, err)
	case !ran:
		log.Printf("DEBUG: scheduler: run %s skipped; plan valid until %s",
			runID, plan.ValidUntil.Format(time.RFC3339))
	default:
		log.Printf("scheduler: run %s stored snapshot (total %d), next refresh after %s",
			runID, plan.Snapshot.Record.Total, plan.ValidUntil.Format(time.RFC3339))
	}
	return ran
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
