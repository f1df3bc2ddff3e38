package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/quickcheck/internal/covid"
	"github.com/i474232898/quickcheck/internal/store"
)

type staticFetcher struct {
	calls atomic.Int32
}

func (f *staticFetcher) Name() string { return "static" }

func (f *staticFetcher) Fetch(ctx context.Context) ([]byte, error) {
	f.calls.Add(1)
	return []byte(`{"Global":{"TotalConfirmed":3,"TotalDeaths":1,"TotalRecovered":4}}`), nil
}

func TestRunOnceHonoursValidUntil(t *testing.T) {
	f := &staticFetcher{}
	svc := covid.NewService(store.NewMemoryStore(), covid.NewPlanner(f))

	clock := time.Date(2020, 6, 23, 12, 0, 0, 0, time.UTC)
	s := New(15*time.Minute, svc)
	s.now = func() time.Time { return clock }

	if !s.RunOnce(context.Background()) {
		t.Fatalf("expected first run to refresh")
	}

	clock = clock.Add(15 * time.Minute)
	if s.RunOnce(context.Background()) {
		t.Fatalf("expected run before validUntil to be skipped")
	}

	clock = clock.Add(covid.RefreshInterval)
	if !s.RunOnce(context.Background()) {
		t.Fatalf("expected run after validUntil to refresh")
	}

	if got := f.calls.Load(); got != 2 {
		t.Fatalf("expected 2 fetches, got %d", got)
	}

	latest, err := svc.Latest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.Snapshot.Record.Total != 8 {
		t.Fatalf("expected total 8, got %d", latest.Snapshot.Record.Total)
	}
}

func TestStartRunsImmediately(t *testing.T) {
	f := &staticFetcher{}
	svc := covid.NewService(store.NewMemoryStore(), covid.NewPlanner(f))

	s := New(time.Hour, svc)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := svc.Latest(); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected a plan to be stored shortly after start")
}
