package covid

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Planner produces one RefreshPlan per cycle. At most one fetch is in flight
// per Planner: a newer Plan call cancels the older cycle and waits for it to
// finish before starting its own fetch.
type Planner struct {
	fetcher Fetcher

	// cycleMu is held for the whole Idle -> Fetching -> Idle transition.
	cycleMu sync.Mutex

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewPlanner creates a Planner backed by fetcher.
func NewPlanner(fetcher Fetcher) *Planner {
	return &Planner{fetcher: fetcher}
}

// Plan fetches and parses the summary and returns a plan valid until
// now + RefreshInterval. Fetch and parse failures are absorbed into the
// fallback snapshot; the only errors returned are ErrSuperseded and ErrAbandoned.
func (p *Planner) Plan(ctx context.Context, now time.Time) (RefreshPlan, error) {
	gen, cycleCtx := p.begin(ctx)
	defer p.end(gen)

	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	if p.superseded(gen) {
		return RefreshPlan{}, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		return RefreshPlan{}, fmt.Errorf("%w: %v", ErrAbandoned, err)
	}

	rec, err := p.load(cycleCtx)

	// Results of a cycle that is no longer current are dropped, never merged.
	if p.superseded(gen) {
		log.Printf("planner: cycle %d superseded; dropping result", gen)
		return RefreshPlan{}, ErrSuperseded
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return RefreshPlan{}, fmt.Errorf("%w: %v", ErrAbandoned, ctxErr)
	}

	if err != nil {
		log.Printf("planner: using fallback record: %v", err)
	}

	return RefreshPlan{
		Snapshot:   Build(now, rec, err),
		ValidUntil: now.UTC().Add(RefreshInterval),
	}, nil
}

// Preview returns a placeholder snapshot built from FallbackRecord without
// touching the network.
func (p *Planner) Preview(now time.Time) Snapshot {
	return Build(now, FallbackRecord(), nil)
}

func (p *Planner) load(ctx context.Context) (Record, error) {
	if p.fetcher == nil {
		return Record{}, &FetchError{Kind: FetchNetworkFailure, Err: fmt.Errorf("no fetcher configured")}
	}

	raw, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return Record{}, err
	}
	return Parse(raw)
}

// begin registers a new cycle, cancelling whichever cycle was current.
func (p *Planner) begin(ctx context.Context) (uint64, context.Context) {
	cycleCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	p.cancel = cancel
	return p.generation, cycleCtx
}

func (p *Planner) end(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.generation == gen && p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Planner) superseded(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation != gen
}
