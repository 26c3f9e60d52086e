// Package scheduler runs a single job immediately and then repeatedly at a fixed interval.
//
// The next run is armed only after the current one returns, so runs of the
// same Scheduler never overlap. A run that takes longer than the interval
// delays the next one instead of stacking up behind it.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned by Start when the loop is active.
var ErrAlreadyRunning = errors.New("scheduler: already running")

// Job is one unit of scheduled work. Its error is logged and does not stop the loop.
type Job func(ctx context.Context) error

// Scheduler drives one Job.
type Scheduler struct {
	name     string
	interval time.Duration
	job      Job
	clock    clockwork.Clock
	log      *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Scheduler. A nil clock means the real clock.
func New(name string, interval time.Duration, job Job, clock clockwork.Clock, log *zap.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler %s: interval must be positive, got %s", name, interval)
	}
	if job == nil {
		return nil, fmt.Errorf("scheduler %s: job is nil", name)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		job:      job,
		clock:    clock,
		log:      log.Named("scheduler").With(zap.String("job", name)),
	}, nil
}

// Interval returns the delay between the end of one run and the start of the next.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Run executes the job once, then again every interval, until ctx is done.
// It blocks.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("scheduler started", zap.Duration("interval", s.interval))
	defer s.log.Info("scheduler stopped")

	for {
		s.runOnce(ctx)

		timer := s.clock.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}
	}
}

// Start launches Run in a goroutine with its own cancellation.
// The ctx argument is only checked for prior cancellation; the loop outlives it.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		s.Run(runCtx)
	}()
	return nil
}

// Stop cancels the loop and waits for an in-flight run to return.
// It is a no-op when the loop is not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop started by Start is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("job panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	start := s.clock.Now()
	if err := s.job(ctx); err != nil {
		s.log.Warn("job failed", zap.Error(err), zap.Duration("elapsed", s.clock.Since(start)))
		return
	}
	s.log.Debug("job finished", zap.Duration("elapsed", s.clock.Since(start)))
}
