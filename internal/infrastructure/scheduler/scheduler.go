// Package scheduler runs the daily billing batches and the notification
// dispatch loop without an external cron dependency.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a named unit of batch work. Jobs run sequentially; a failing job
// does not stop the ones after it.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Config holds daily scheduler configuration
type Config struct {
	Enabled bool
	// DailyHour is the local hour (0-23) the daily batch runs at
	DailyHour int
	// CheckInterval is how often to check whether the hour has arrived
	CheckInterval time.Duration
	// JobTimeout bounds each job run
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		DailyHour:     2,
		CheckInterval: time.Minute,
		JobTimeout:    30 * time.Minute,
	}
}

// DailyScheduler runs the registered jobs once per day at the configured
// hour. A date guard keeps the batch from running twice on the same day
// even when the process restarts mid-hour.
type DailyScheduler struct {
	config Config
	logger *zap.Logger

	jobs        []Job
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewDailyScheduler creates a new daily scheduler
func NewDailyScheduler(config Config, logger *zap.Logger) *DailyScheduler {
	return &DailyScheduler{
		config: config,
		logger: logger,
	}
}

// Register adds a job to the daily batch. Jobs run in registration order.
func (s *DailyScheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

// Start starts the scheduler loop. A disabled scheduler starts nothing;
// batches can still be triggered through RunJobs.
func (s *DailyScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Daily scheduler disabled, batches will not run")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Daily scheduler started",
		zap.Int("daily_hour", s.config.DailyHour),
		zap.Duration("check_interval", s.config.CheckInterval),
		zap.Int("jobs", len(s.jobs)),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *DailyScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Daily scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Daily scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *DailyScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	interval := s.config.CheckInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndTrigger(ctx)
		}
	}
}

func (s *DailyScheduler) checkAndTrigger(ctx context.Context) {
	now := time.Now()
	currentDate := now.Format("2006-01-02")

	s.mu.Lock()
	if s.lastRunDate == currentDate {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if now.Hour() != s.config.DailyHour {
		return
	}

	s.mu.Lock()
	s.lastRunDate = currentDate
	s.mu.Unlock()

	s.logger.Info("Triggering daily billing batch", zap.String("date", currentDate))
	s.RunJobs(ctx)
}

// RunJobs runs all registered jobs once, sequentially. Exposed so an
// operator endpoint can trigger the batch outside the scheduled hour.
func (s *DailyScheduler) RunJobs(ctx context.Context) {
	s.mu.Lock()
	jobs := make([]Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, job := range jobs {
		if err := s.runJob(ctx, job); err != nil {
			s.logger.Error("Scheduled job failed",
				zap.String("job", job.Name),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("Scheduled job completed", zap.String("job", job.Name))
	}
}

func (s *DailyScheduler) runJob(ctx context.Context, job Job) (err error) {
	jobCtx := ctx
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()

	return job.Run(jobCtx)
}
