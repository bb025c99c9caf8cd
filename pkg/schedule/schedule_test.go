package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)

func TestEveryRunsOnFirstTickThenByInterval(t *testing.T) {
	s := New()
	var runs atomic.Int32
	require.NoError(t, s.Every(time.Hour).Name("export").Run(func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	ctx := context.Background()
	s.Tick(ctx, base)
	s.Wait()
	s.Tick(ctx, base.Add(30*time.Minute))
	s.Wait()
	assert.Equal(t, int32(1), runs.Load())

	s.Tick(ctx, base.Add(time.Hour))
	s.Wait()
	assert.Equal(t, int32(2), runs.Load())
}

func TestCronFiresOncePerMinute(t *testing.T) {
	s := New()
	var runs atomic.Int32
	require.NoError(t, s.Cron("0 3 * * *").Run(func(context.Context) error {
		runs.Add(1)
		return errors.New("logged, not fatal")
	}))

	ctx := context.Background()
	for i := 0; i < 60; i++ {
		s.Tick(ctx, base.Add(time.Duration(i)*time.Second))
	}
	s.Wait()
	assert.Equal(t, int32(1), runs.Load())

	s.Tick(ctx, base.Add(time.Minute))
	s.Wait()
	assert.Equal(t, int32(1), runs.Load())

	s.Tick(ctx, base.Add(24*time.Hour))
	s.Wait()
	assert.Equal(t, int32(2), runs.Load())
}

func TestWithoutOverlappingSkipsBusyTask(t *testing.T) {
	s := New()
	release := make(chan struct{})
	var runs atomic.Int32
	require.NoError(t, s.Every(time.Second).WithoutOverlapping().Run(func(context.Context) error {
		runs.Add(1)
		<-release
		return nil
	}))

	ctx := context.Background()
	s.Tick(ctx, base)
	s.Tick(ctx, base.Add(2*time.Second))
	close(release)
	s.Wait()

	assert.Equal(t, int32(1), runs.Load())
}

func TestPanickingTaskIsRecovered(t *testing.T) {
	s := New()
	require.NoError(t, s.Every(time.Second).Run(func(context.Context) error { panic("boom") }))

	s.Tick(context.Background(), base)
	s.Wait()
}

func TestRunRejectsBadSchedules(t *testing.T) {
	s := New()
	noop := func(context.Context) error { return nil }

	assert.Error(t, s.Every(0).Run(noop))
	assert.Error(t, s.Cron("* * *").Run(noop))
	assert.Error(t, s.Cron("61 * * * *").Run(noop))
	assert.Error(t, s.Cron("*/0 * * * *").Run(noop))
	assert.NoError(t, s.Cron("0,30 9-17 * * 1-5").Run(noop))
	assert.Equal(t, []string{"task-1  [0,30 9-17 * * 1-5]"}, s.List())
}

func TestMatchCron(t *testing.T) {
	friday := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	assert.True(t, matchCron("0,30 9-17 * * 1-5", friday))
	assert.True(t, matchCron("*/15 * * * *", friday))
	assert.False(t, matchCron("0 * * * *", friday))
	assert.False(t, matchCron("30 9 * * 0", friday))
}

func TestStartStopsOnCancel(t *testing.T) {
	s := New()
	started := make(chan struct{}, 1)
	require.NoError(t, s.Every(time.Hour).Run(func(context.Context) error {
		started <- struct{}{}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	<-started
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
