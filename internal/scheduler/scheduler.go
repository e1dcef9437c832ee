package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	"github.com/oakline/taskherald/internal/scanner"
)

// Scanner is the scan operation the scheduler drives.
type Scanner interface {
	RunScan(ctx context.Context, now time.Time) scanner.Result
}

// Scheduler invokes the deadline scan on a fixed interval. The cron
// entry is wrapped in SkipIfStillRunning, so a tick that fires while a
// previous scan is still in flight is skipped rather than overlapped.
// That upholds the scanner's at-most-one-in-flight precondition.
type Scheduler struct {
	scanner  Scanner
	interval time.Duration

	mu     sync.Mutex
	cron   *rcron.Cron
	cancel context.CancelFunc
}

// New creates a Scheduler driving sc every interval.
func New(sc Scanner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{scanner: sc, interval: interval}
}

// Start runs one scan immediately, then schedules recurring scans.
// Stop (or cancelling ctx) halts the ticking; an in-progress scan runs
// to completion.
func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	c := rcron.New(rcron.WithChain(
		rcron.SkipIfStillRunning(rcron.DefaultLogger),
		rcron.Recover(rcron.DefaultLogger),
	))

	if _, err := c.AddFunc("@every "+s.interval.String(), func() {
		s.runOnce(runCtx)
	}); err != nil {
		cancel()
		return fmt.Errorf("scheduling scan every %s: %w", s.interval, err)
	}

	s.mu.Lock()
	s.cron = c
	s.cancel = cancel
	s.mu.Unlock()

	// Initial scan before ticking starts, same as the first interval
	// would otherwise be dead time after every restart.
	s.runOnce(runCtx)

	c.Start()
	log.Printf("[scheduler] started, scanning every %s", s.interval)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the schedule and waits briefly for a running scan.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	cancel := s.cancel
	s.cron = nil
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c == nil {
		return
	}

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		log.Printf("[scheduler] stop timeout waiting for running scan")
	}
	log.Printf("[scheduler] stopped")
}

// runOnce executes a single scan against the current wall clock.
func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	res := s.scanner.RunScan(ctx, time.Now())
	if res.DaySent > 0 || res.HourSent > 0 || res.Errors > 0 {
		log.Printf("[scheduler] scan complete: day=%d hour=%d errors=%d",
			res.DaySent, res.HourSent, res.Errors)
	}
}
