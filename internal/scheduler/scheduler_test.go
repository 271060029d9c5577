package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datptitudu2/backendthuvienptit/internal/config"
	"github.com/datptitudu2/backendthuvienptit/internal/monitor"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeRunner) Run(_ context.Context, name string) (monitor.SweepResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return monitor.SweepResult{Name: name}, nil
}

func (f *fakeRunner) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func defaultMonitorConfig() config.Monitor {
	return config.Monitor{
		Enabled:          true,
		DueSoonSchedule:  "0 9 * * *",
		LowStockSchedule: "0 */12 * * *",
		OverdueSchedule:  "0 0 * * *",
	}
}

func TestValidateCronSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		valid    bool
	}{
		{"0 9 * * *", true},
		{"0 */12 * * *", true},
		{"*/15 * * * *", true},
		{"0 0 * * 0", true},
		{"invalid", false},
		{"0 0 0 * * *", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			err := ValidateCronSchedule(tt.schedule)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestGetNextRunTime(t *testing.T) {
	from := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)

	next, err := GetNextRunTime("0 9 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), *next)

	next, err = GetNextRunTime("0 */12 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC), *next)

	_, err = GetNextRunTime("bogus", from)
	assert.Error(t, err)
}

func TestGetCronDescription(t *testing.T) {
	assert.Equal(t, "Daily at 09:00", GetCronDescription("0 9 * * *"))
	assert.Equal(t, "Every 12 hours", GetCronDescription("0 */12 * * *"))
	assert.Equal(t, "Custom schedule: 5 4 * * *", GetCronDescription("5 4 * * *"))
}

func TestNew_RejectsBadJobs(t *testing.T) {
	_, err := New(Job{Name: "a", Schedule: "nope", Run: func(context.Context) error { return nil }})
	assert.Error(t, err)

	noop := func(context.Context) error { return nil }
	_, err = New(Job{Name: "a", Schedule: "0 0 * * *", Run: noop}, Job{Name: "a", Schedule: "0 1 * * *", Run: noop})
	assert.Error(t, err)
}

func TestScheduler_StartStatusStop(t *testing.T) {
	runner := &fakeRunner{}
	s, err := New(MonitorJobs(runner, defaultMonitorConfig())...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(ctx), "second start is a no-op")

	status := s.Status()
	require.Len(t, status, 3)
	names := make([]string, 0, len(status))
	for _, st := range status {
		names = append(names, st.Name)
		assert.NotNil(t, st.NextRun, st.Name)
	}
	assert.Equal(t, monitor.SweepNames(), names)

	s.Stop()
	assert.False(t, s.IsRunning())
	for _, st := range s.Status() {
		assert.Nil(t, st.NextRun)
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	s, err := New(MonitorJobs(&fakeRunner{}, defaultMonitorConfig())...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestScheduler_RunNow(t *testing.T) {
	runner := &fakeRunner{}
	failing := Job{
		Name:     "cleanup",
		Schedule: "30 3 * * *",
		Run:      func(context.Context) error { return errors.New("disk full") },
	}
	s, err := New(append(MonitorJobs(runner, defaultMonitorConfig()), failing)...)
	require.NoError(t, err)

	assert.ErrorIs(t, s.RunNow(monitor.SweepOverdue), ErrNotRunning)

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	require.NoError(t, s.RunNow(monitor.SweepOverdue))
	require.NoError(t, s.RunNow("cleanup"))
	assert.ErrorIs(t, s.RunNow("weekly"), ErrUnknownJob)

	assert.Eventually(t, func() bool {
		for _, st := range s.Status() {
			if st.LastRun == nil {
				continue
			}
			if st.Name == "cleanup" && st.LastError == "disk full" {
				return len(runner.names()) == 1
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{monitor.SweepOverdue}, runner.names())
}

func TestScheduler_StopWaitsForManualRuns(t *testing.T) {
	release := make(chan struct{})
	var finished atomic.Bool
	slow := Job{
		Name:     "slow",
		Schedule: "0 0 1 1 *",
		Run: func(context.Context) error {
			<-release
			finished.Store(true)
			return nil
		},
	}
	s, err := New(slow)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.RunNow("slow"))

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, s.RunNow("slow"), ErrNotRunning)

	select {
	case <-stopped:
		t.Fatal("Stop returned before the manual run finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-stopped
	assert.True(t, finished.Load())
}
