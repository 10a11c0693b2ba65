package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"portfolio-dashboard/infrastructure/logger"
)

// Ticker is the work run on every scheduler tick.
type Ticker interface {
	Tick(ctx context.Context, n uint64) (*Snapshot, error)
}

// Scheduler runs a Ticker at a fixed period. Ticks never overlap: a tick
// requested while another is running joins the running one.
type Scheduler struct {
	interval time.Duration
	ticker   Ticker
	logger   *logger.Logger

	group singleflight.Group
	ticks atomic.Uint64

	mu   sync.Mutex
	root context.Context
}

func NewScheduler(interval time.Duration, t Ticker, l *logger.Logger) *Scheduler {
	if l == nil {
		l = logger.NewNop()
	}
	return &Scheduler{interval: interval, ticker: t, logger: l}
}

// Ticks returns the number of ticks started so far.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks.Load()
}

// Interval returns the tick period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// RunOnce executes a tick unless one is in flight, in which case it waits for
// and returns the in-flight result.
func (s *Scheduler) RunOnce(ctx context.Context) (*Snapshot, error) {
	v, err, _ := s.group.Do("tick", func() (interface{}, error) {
		n := s.ticks.Add(1)
		return s.ticker.Tick(ctx, n)
	})
	snap, _ := v.(*Snapshot)
	return snap, err
}

// Trigger runs a tick outside the timer under the scheduler's own context,
// so a caller going away does not cancel a tick others may be sharing.
func (s *Scheduler) Trigger() (*Snapshot, error) {
	s.mu.Lock()
	ctx := s.root
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	return s.RunOnce(ctx)
}

// Run ticks immediately and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.root = ctx
	s.mu.Unlock()

	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.logger.Info("scheduler started")
	for {
		// errors are already logged and published by the ticker
		_, _ = s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-t.C:
		}
	}
}
