package covid

import (
	"context"
)

// Fetcher retrieves the raw summary document. Implementations perform exactly
// one request per call and report failures as *FetchError.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}

// Store holds the latest plan for the presentation layer (and any future persistent store).
type Store interface {
	SavePlan(plan RefreshPlan) bool
	GetLatest() (RefreshPlan, error)
}
