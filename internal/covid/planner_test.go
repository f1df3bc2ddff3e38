package covid

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

const examplePayload = `{"Global":{"TotalConfirmed":100,"TotalDeaths":10,"TotalRecovered":50}}`

// stubFetcher returns a fixed body or error and counts calls.
type stubFetcher struct {
	body  []byte
	err   error
	calls atomic.Int32
}

func (f *stubFetcher) Name() string { return "stub" }

func (f *stubFetcher) Fetch(ctx context.Context) ([]byte, error) {
	f.calls.Add(1)
	return f.body, f.err
}

// blockingFetcher blocks its first call until the context ends; later calls
// return body immediately.
type blockingFetcher struct {
	body    []byte
	started chan struct{}
	calls   atomic.Int32
}

func (f *blockingFetcher) Name() string { return "blocking" }

func (f *blockingFetcher) Fetch(ctx context.Context) ([]byte, error) {
	if f.calls.Add(1) == 1 {
		close(f.started)
		<-ctx.Done()
		return nil, &FetchError{Kind: FetchNetworkFailure, Err: ctx.Err()}
	}
	return f.body, nil
}

func TestPlanSuccess(t *testing.T) {
	now := time.Date(2020, 6, 23, 12, 0, 0, 0, time.UTC)
	p := NewPlanner(&stubFetcher{body: []byte(examplePayload)})

	plan, err := p.Plan(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Record{Confirmed: 100, Deaths: 10, Recovered: 50, Total: 160}
	if plan.Snapshot.Record != want {
		t.Fatalf("expected %+v, got %+v", want, plan.Snapshot.Record)
	}
	if !plan.Snapshot.CapturedAt.Equal(now) {
		t.Fatalf("expected capturedAt %v, got %v", now, plan.Snapshot.CapturedAt)
	}
	if !plan.ValidUntil.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("expected validUntil %v, got %v", now.Add(24*time.Hour), plan.ValidUntil)
	}
}

func TestPlanFailuresUseFallbackAndSameCadence(t *testing.T) {
	now := time.Date(2021, 3, 28, 0, 30, 0, 0, time.UTC)

	fetchers := map[string]*stubFetcher{
		"timeout":        {err: &FetchError{Kind: FetchTimeout, Err: context.DeadlineExceeded}},
		"network":        {err: &FetchError{Kind: FetchNetworkFailure, Err: errors.New("no route to host")}},
		"status":         {err: &FetchError{Kind: FetchNonSuccessStatus, StatusCode: 500}},
		"missing global": {body: []byte(`{"Countries":[]}`)},
		"garbage":        {body: []byte(`not json`)},
	}

	for name, f := range fetchers {
		t.Run(name, func(t *testing.T) {
			plan, err := NewPlanner(f).Plan(context.Background(), now)
			if err != nil {
				t.Fatalf("expected failures to be absorbed, got %v", err)
			}
			if plan.Snapshot.Record != FallbackRecord() {
				t.Fatalf("expected fallback record, got %+v", plan.Snapshot.Record)
			}
			if plan.Snapshot.Record.Proportions() != (Proportions{}) {
				t.Fatalf("expected zero shares, got %+v", plan.Snapshot.Record.Proportions())
			}
			if !plan.ValidUntil.Equal(now.Add(RefreshInterval)) {
				t.Fatalf("expected validUntil %v, got %v", now.Add(RefreshInterval), plan.ValidUntil)
			}
			if f.calls.Load() != 1 {
				t.Fatalf("expected exactly one fetch, got %d", f.calls.Load())
			}
		})
	}
}

func TestPlanWithoutFetcherFallsBack(t *testing.T) {
	now := time.Now().UTC()

	plan, err := NewPlanner(nil).Plan(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Snapshot.Record != FallbackRecord() {
		t.Fatalf("expected fallback record, got %+v", plan.Snapshot.Record)
	}
}

func TestPlanSupersededCycleIsDropped(t *testing.T) {
	now := time.Date(2020, 6, 23, 12, 0, 0, 0, time.UTC)
	f := &blockingFetcher{body: []byte(examplePayload), started: make(chan struct{})}
	p := NewPlanner(f)

	firstErr := make(chan error, 1)
	go func() {
		_, err := p.Plan(context.Background(), now)
		firstErr <- err
	}()

	select {
	case <-f.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("first fetch never started")
	}

	plan, err := p.Plan(context.Background(), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error from newer cycle: %v", err)
	}
	if plan.Snapshot.Record.Total != 160 {
		t.Fatalf("expected newer cycle to produce live data, got %+v", plan.Snapshot.Record)
	}

	select {
	case err := <-firstErr:
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("expected ErrSuperseded for older cycle, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("older cycle never returned")
	}

	if got := f.calls.Load(); got != 2 {
		t.Fatalf("expected 2 fetches, got %d", got)
	}
}

func TestPlanAbandonedByCaller(t *testing.T) {
	f := &blockingFetcher{body: []byte(examplePayload), started: make(chan struct{})}
	p := NewPlanner(f)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-f.started
		cancel()
	}()

	_, err := p.Plan(ctx, time.Now().UTC())
	if !errors.Is(err, ErrAbandoned) {
		t.Fatalf("expected ErrAbandoned, got %v", err)
	}

	// The planner is back to idle and serves the next cycle normally.
	plan, err := p.Plan(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error after abandoned cycle: %v", err)
	}
	if plan.Snapshot.Record.Total != 160 {
		t.Fatalf("expected live data, got %+v", plan.Snapshot.Record)
	}
}

func TestPlanCancelledBeforeStart(t *testing.T) {
	f := &stubFetcher{body: []byte(examplePayload)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPlanner(f).Plan(ctx, time.Now().UTC())
	if !errors.Is(err, ErrAbandoned) {
		t.Fatalf("expected ErrAbandoned, got %v", err)
	}
	if f.calls.Load() != 0 {
		t.Fatalf("expected no fetch for a cancelled cycle, got %d", f.calls.Load())
	}
}

func TestPreviewSkipsNetwork(t *testing.T) {
	f := &stubFetcher{body: []byte(examplePayload)}
	now := time.Date(2020, 6, 23, 12, 0, 0, 0, time.UTC)

	snap := NewPlanner(f).Preview(now)
	if snap.Record != FallbackRecord() {
		t.Fatalf("expected fallback record, got %+v", snap.Record)
	}
	if !snap.CapturedAt.Equal(now) {
		t.Fatalf("expected capturedAt %v, got %v", now, snap.CapturedAt)
	}
	if f.calls.Load() != 0 {
		t.Fatalf("expected no fetch, got %d", f.calls.Load())
	}
}

func TestRefreshPlanExpired(t *testing.T) {
	now := time.Date(2020, 6, 23, 12, 0, 0, 0, time.UTC)
	plan := RefreshPlan{ValidUntil: now.Add(RefreshInterval)}

	if plan.Expired(now) {
		t.Fatalf("plan should be valid at creation")
	}
	if !plan.Expired(now.Add(RefreshInterval)) {
		t.Fatalf("plan should expire at validUntil")
	}
}
