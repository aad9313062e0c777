package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IntervalRunner repeatedly runs a single function at a fixed interval.
// The notification dispatch loop uses it to drain the pending queue.
type IntervalRunner struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewIntervalRunner creates a new interval runner
func NewIntervalRunner(name string, interval time.Duration, fn func(ctx context.Context) error, logger *zap.Logger) *IntervalRunner {
	return &IntervalRunner{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   logger,
	}
}

// Start starts the runner loop
func (r *IntervalRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = true
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.runLoop(ctx)

	r.logger.Info("Interval runner started",
		zap.String("name", r.name),
		zap.Duration("interval", r.interval),
	)

	return nil
}

// Stop gracefully stops the runner
func (r *IntervalRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Interval runner stopped", zap.String("name", r.name))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *IntervalRunner) runLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.runOnce(ctx); err != nil {
				r.logger.Error("Interval run failed",
					zap.String("name", r.name),
					zap.Error(err),
				)
			}
		}
	}
}

func (r *IntervalRunner) runOnce(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s panicked: %v", r.name, rec)
		}
	}()
	return r.fn(ctx)
}
