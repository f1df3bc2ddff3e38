package covid

import (
	"context"
	"errors"
	"log"
	"time"
)

// ErrNoPlan is returned by Service.Latest before the first cycle completed.
var ErrNoPlan = errors.New("no refresh plan available")

// Service wires the Planner to the store the presentation layer reads from.
type Service struct {
	planner *Planner
	store   Store
}

// NewService creates a new Service.
func NewService(store Store, planner *Planner) *Service {
	return &Service{
		store:   store,
		planner: planner,
	}
}

// Refresh runs one cycle and saves the resulting plan.
// A plan older than the one already stored is not applied.
func (s *Service) Refresh(ctx context.Context, now time.Time) (RefreshPlan, error) {
	plan, err := s.planner.Plan(ctx, now)
	if err != nil {
		return RefreshPlan{}, err
	}

	if !s.store.SavePlan(plan) {
		log.Printf("INFO: discarding plan captured at %s; a newer plan is already stored",
			plan.Snapshot.CapturedAt.Format(time.RFC3339))
		return RefreshPlan{}, ErrSuperseded
	}
	return plan, nil
}

// RefreshIfDue runs a cycle only when no plan is stored or the stored plan
// has expired. It reports whether a cycle ran.
func (s *Service) RefreshIfDue(ctx context.Context, now time.Time) (RefreshPlan, bool, error) {
	if current, err := s.store.GetLatest(); err == nil && !current.Expired(now) {
		return current, false, nil
	}

	plan, err := s.Refresh(ctx, now)
	if err != nil {
		return RefreshPlan{}, true, err
	}
	return plan, true, nil
}

// Latest returns the most recent stored plan.
func (s *Service) Latest() (RefreshPlan, error) {
	plan, err := s.store.GetLatest()
	if err != nil {
		return RefreshPlan{}, ErrNoPlan
	}
	return plan, nil
}

// Preview delegates to the planner; it never performs a fetch.
func (s *Service) Preview(now time.Time) Snapshot {
	return s.planner.Preview(now)
}
