package index

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler defaults.
const (
	// DefaultTick is how often the scheduler checks whether a rescan
	// is due.
	DefaultTick = 5 * time.Second
	// DefaultErrorBackoff is the extra wait after a failed scan cycle.
	DefaultErrorBackoff = 30 * time.Second
)

// Scheduler triggers periodic rescans, decoupled from request traffic.
// One perpetual loop: every tick it checks the time since the last
// completed scan and rescans when the interval has elapsed. A failed
// cycle is logged and followed by a longer wait; the loop itself only
// stops when the context is cancelled.
type Scheduler struct {
	coord    *Coordinator
	interval time.Duration
	tick     time.Duration
	backoff  time.Duration
}

// NewScheduler creates a scheduler rescanning every interval.
func NewScheduler(coord *Coordinator, interval time.Duration) *Scheduler {
	return &Scheduler{
		coord:    coord,
		interval: interval,
		tick:     DefaultTick,
		backoff:  DefaultErrorBackoff,
	}
}

// Run blocks until ctx is cancelled. An in-flight scan runs to
// completion or fails outright; there is no mid-scan cancellation
// beyond the context itself.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler_started",
		slog.Duration("interval", s.interval),
		slog.Duration("tick", s.tick))

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler_stopped")
			return ctx.Err()
		case <-ticker.C:
			if !s.due() {
				continue
			}
			if _, err := s.coord.Rescan(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Error("scan_cycle_failed", slog.String("error", err.Error()))
				// Back off before resuming normal ticking.
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(s.backoff):
				}
			}
		}
	}
}

// due reports whether enough time has passed since the last completed
// scan. A never-scanned tree is always due.
func (s *Scheduler) due() bool {
	last, ok := s.coord.LastScan()
	if !ok {
		return true
	}
	return time.Since(last) >= s.interval
}
