package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDailyScheduler_RunJobs(t *testing.T) {
	t.Run("runs jobs in registration order", func(t *testing.T) {
		s := NewDailyScheduler(DefaultConfig(), zap.NewNop())

		var order []string
		s.Register(Job{Name: "late-fees", Run: func(ctx context.Context) error {
			order = append(order, "late-fees")
			return nil
		}})
		s.Register(Job{Name: "reminders", Run: func(ctx context.Context) error {
			order = append(order, "reminders")
			return nil
		}})

		s.RunJobs(context.Background())

		assert.Equal(t, []string{"late-fees", "reminders"}, order)
	})

	t.Run("failing job does not stop later jobs", func(t *testing.T) {
		s := NewDailyScheduler(DefaultConfig(), zap.NewNop())

		var ran bool
		s.Register(Job{Name: "broken", Run: func(ctx context.Context) error {
			return errors.New("database unreachable")
		}})
		s.Register(Job{Name: "reminders", Run: func(ctx context.Context) error {
			ran = true
			return nil
		}})

		s.RunJobs(context.Background())

		assert.True(t, ran)
	})

	t.Run("panicking job is contained", func(t *testing.T) {
		s := NewDailyScheduler(DefaultConfig(), zap.NewNop())

		var ran bool
		s.Register(Job{Name: "panics", Run: func(ctx context.Context) error {
			panic("boom")
		}})
		s.Register(Job{Name: "survivor", Run: func(ctx context.Context) error {
			ran = true
			return nil
		}})

		assert.NotPanics(t, func() {
			s.RunJobs(context.Background())
		})
		assert.True(t, ran)
	})

	t.Run("job context carries the configured timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.JobTimeout = time.Hour
		s := NewDailyScheduler(cfg, zap.NewNop())

		s.Register(Job{Name: "checks-deadline", Run: func(ctx context.Context) error {
			deadline, ok := ctx.Deadline()
			assert.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(time.Hour), deadline, time.Minute)
			return nil
		}})

		s.RunJobs(context.Background())
	})
}

func TestDailyScheduler_StartStop(t *testing.T) {
	t.Run("start is idempotent and stop shuts down", func(t *testing.T) {
		s := NewDailyScheduler(DefaultConfig(), zap.NewNop())

		require.NoError(t, s.Start(context.Background()))
		require.NoError(t, s.Start(context.Background()))

		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, s.Stop(stopCtx))
	})

	t.Run("disabled scheduler never fires jobs", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = false
		cfg.DailyHour = time.Now().Hour()
		cfg.CheckInterval = 5 * time.Millisecond
		s := NewDailyScheduler(cfg, zap.NewNop())

		var runs atomic.Int32
		s.Register(Job{Name: "counts", Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		}})

		require.NoError(t, s.Start(context.Background()))
		time.Sleep(50 * time.Millisecond)
		assert.Zero(t, runs.Load())

		assert.NoError(t, s.Stop(context.Background()))
	})

	t.Run("stop on never started scheduler is a no-op", func(t *testing.T) {
		s := NewDailyScheduler(DefaultConfig(), zap.NewNop())

		assert.NoError(t, s.Stop(context.Background()))
	})
}

func TestIntervalRunner(t *testing.T) {
	t.Run("runs function repeatedly", func(t *testing.T) {
		var runs atomic.Int32
		r := NewIntervalRunner("dispatch", 10*time.Millisecond, func(ctx context.Context) error {
			runs.Add(1)
			return nil
		}, zap.NewNop())

		require.NoError(t, r.Start(context.Background()))

		assert.Eventually(t, func() bool {
			return runs.Load() >= 2
		}, time.Second, 5*time.Millisecond)

		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, r.Stop(stopCtx))
	})

	t.Run("keeps running after a panic", func(t *testing.T) {
		var runs atomic.Int32
		r := NewIntervalRunner("flaky", 10*time.Millisecond, func(ctx context.Context) error {
			if runs.Add(1) == 1 {
				panic("boom")
			}
			return nil
		}, zap.NewNop())

		require.NoError(t, r.Start(context.Background()))

		assert.Eventually(t, func() bool {
			return runs.Load() >= 3
		}, time.Second, 5*time.Millisecond)

		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, r.Stop(stopCtx))
	})
}
