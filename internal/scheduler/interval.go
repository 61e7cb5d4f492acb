// Package scheduler provides the timer-driven sync trigger: a fixed-cadence
// runner that dispatches the same pass the manual HTTP endpoint runs.
package scheduler

import (
	"context"
	"time"

	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

const defaultInterval = 15 * time.Minute

// RunFunc is the unit of work invoked on every tick.
type RunFunc func(ctx context.Context) error

// Option allows customizing the behaviour of the interval runner.
type Option func(*IntervalRunner)

// WithLogger injects the logger used for tick outcomes.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *IntervalRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRunOnStart triggers one pass immediately when Run begins, before the
// first tick elapses.
func WithRunOnStart() Option {
	return func(r *IntervalRunner) {
		r.runOnStart = true
	}
}

// IntervalRunner invokes a RunFunc on a fixed cadence until its context is
// cancelled. Failures are logged and the cadence continues; the next tick is
// the retry policy.
type IntervalRunner struct {
	interval   time.Duration
	run        RunFunc
	logger     interfaces.Logger
	runOnStart bool
}

// NewInterval builds a runner. A non-positive interval falls back to the
// default cadence.
func NewInterval(interval time.Duration, run RunFunc, opts ...Option) *IntervalRunner {
	if interval <= 0 {
		interval = defaultInterval
	}
	r := &IntervalRunner{
		interval: interval,
		run:      run,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run blocks until ctx is cancelled, dispatching one pass per tick. Each pass
// gets the parent context so a hung upstream call stalls only that cycle.
func (r *IntervalRunner) Run(ctx context.Context) {
	if r.run == nil {
		return
	}

	if r.runOnStart {
		r.dispatch(ctx)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("scheduler.stopped")
			return
		case <-ticker.C:
			r.dispatch(ctx)
		}
	}
}

func (r *IntervalRunner) dispatch(ctx context.Context) {
	if err := r.run(ctx); err != nil {
		r.logger.Error("scheduler.pass.failed", "error", err)
		return
	}
	r.logger.Debug("scheduler.pass.completed")
}
