package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oakline/taskherald/internal/scanner"
)

// countingScanner records how often it ran.
type countingScanner struct {
	runs atomic.Int64
}

func (c *countingScanner) RunScan(ctx context.Context, now time.Time) scanner.Result {
	c.runs.Add(1)
	return scanner.Result{}
}

func TestScheduler_RunsInitialScanOnStart(t *testing.T) {
	sc := &countingScanner{}
	s := New(sc, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if got := sc.runs.Load(); got != 1 {
		t.Errorf("runs after Start = %d, want 1 (the immediate scan)", got)
	}
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	sc := &countingScanner{}
	s := New(sc, time.Hour)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s.Stop()
	s.Stop()
}

func TestScheduler_ContextCancelStops(t *testing.T) {
	sc := &countingScanner{}
	s := New(sc, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cancel()
	time.Sleep(50 * time.Millisecond)

	// After cancellation no further scans run even if triggered.
	before := sc.runs.Load()
	time.Sleep(50 * time.Millisecond)
	if got := sc.runs.Load(); got != before {
		t.Errorf("runs advanced after cancel: %d -> %d", before, got)
	}
}

func TestScheduler_DefaultInterval(t *testing.T) {
	s := New(&countingScanner{}, 0)
	if s.interval != time.Minute {
		t.Errorf("interval = %v, want 1m default", s.interval)
	}
}
