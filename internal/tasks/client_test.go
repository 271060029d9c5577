package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datptitudu2/backendthuvienptit/internal/config"
	"github.com/datptitudu2/backendthuvienptit/internal/monitor"
)

func newTestClient(t *testing.T) *Client {
	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "test-tasks.db")
	cfg.Workers = 1

	client, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func startClient(t *testing.T, client *Client) {
	ctx, cancel := context.WithCancel(context.Background())
	client.Start(ctx)
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		client.Stop(stopCtx)
		cancel()
	})
}

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(tmpDir, "test-tasks.db")
	cfg.Workers = 1

	client, err := NewClient(cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	_, err = os.Stat(cfg.DBPath)
	assert.NoError(t, err, "tasks database should be created")

	assert.NoError(t, client.Close())
}

func TestClientStartStop(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.False(t, client.Running())
	client.Start(ctx)
	client.Start(ctx)
	assert.True(t, client.Running())

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
	assert.False(t, client.Running())
	assert.True(t, client.Stop(stopCtx), "second stop is a no-op")
}

// TestTask is a simple task for testing
type TestTask struct {
	Value string `json:"value"`
}

func (t TestTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "test_task",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
	}
}

func TestTaskEnqueue(t *testing.T) {
	client := newTestClient(t)

	executed := make(chan string, 1)
	client.Register(backlite.NewQueue(func(ctx context.Context, task TestTask) error {
		executed <- task.Value
		return nil
	}))
	startClient(t, client)

	id, err := client.Enqueue(context.Background(), TestTask{Value: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case val := <-executed:
		assert.Equal(t, "hello", val)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}
}

func TestEnqueue_NotStarted(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Enqueue(context.Background(), TestTask{Value: "early"})
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.ErrorIs(t, NewLowStockTrigger(client).TriggerLowStockSweep(context.Background()), ErrNotStarted)
}

type fakeSweeper struct {
	runs chan struct{}
}

func (f *fakeSweeper) RunLowStockSweep(context.Context) (monitor.SweepResult, error) {
	f.runs <- struct{}{}
	return monitor.SweepResult{Name: monitor.SweepLowStock}, nil
}

func TestLowStockTrigger_EnqueuesSweep(t *testing.T) {
	client := newTestClient(t)
	sweeper := &fakeSweeper{runs: make(chan struct{}, 1)}
	client.Register(NewLowStockSweepQueue(sweeper))
	startClient(t, client)

	require.NoError(t, NewLowStockTrigger(client).TriggerLowStockSweep(context.Background()))

	select {
	case <-sweeper.runs:
	case <-time.After(5 * time.Second):
		t.Fatal("low stock sweep was not executed within timeout")
	}
}

type fakeCleaner struct {
	retention atomic.Int64
	err       error
}

func (f *fakeCleaner) DeleteOldActivities(_ context.Context, retention time.Duration) (int64, error) {
	f.retention.Store(int64(retention))
	return 3, f.err
}

func TestCleanupActivitiesProcessor(t *testing.T) {
	t.Run("uses task retention", func(t *testing.T) {
		cleaner := &fakeCleaner{}
		err := CleanupActivitiesProcessor(cleaner)(context.Background(), CleanupActivitiesTask{RetentionDays: 30})
		require.NoError(t, err)
		assert.Equal(t, int64(30*24*time.Hour), cleaner.retention.Load())
	})

	t.Run("defaults retention", func(t *testing.T) {
		cleaner := &fakeCleaner{}
		require.NoError(t, CleanupActivitiesProcessor(cleaner)(context.Background(), CleanupActivitiesTask{}))
		assert.Equal(t, int64(180*24*time.Hour), cleaner.retention.Load())
	})

	t.Run("propagates errors", func(t *testing.T) {
		cleaner := &fakeCleaner{err: errors.New("locked")}
		err := CleanupActivitiesProcessor(cleaner)(context.Background(), CleanupActivitiesTask{RetentionDays: 1})
		assert.Error(t, err)
	})

	t.Run("nil cleaner", func(t *testing.T) {
		err := CleanupActivitiesProcessor(nil)(context.Background(), CleanupActivitiesTask{})
		assert.Error(t, err)
	})
}

func TestTaskConfigs(t *testing.T) {
	low := LowStockSweepTask{}.Config()
	assert.Equal(t, "low_stock_sweep", low.Name)
	assert.Equal(t, 3, low.MaxAttempts)
	assert.NotNil(t, low.Retention)

	cleanup := CleanupActivitiesTask{}.Config()
	assert.Equal(t, "cleanup_activities", cleanup.Name)
	assert.Equal(t, 2*time.Minute, cleanup.Timeout)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 24*time.Hour, cfg.RetentionDuration)
	assert.Equal(t, filepath.Join(".", "library-tasks.db"), cfg.DBPath)
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{DBPath: "/data/library-tasks.db"}
	assert.Equal(t, "/data/library-tasks.db?_journal=WAL&_timeout=5000&_busy_timeout=5000", cfg.DSN())
}

func TestConfigFrom(t *testing.T) {
	t.Run("derives path from sqlite database", func(t *testing.T) {
		cfg := ConfigFrom(config.Tasks{Workers: 4}, config.Database{Driver: config.DriverSQLite, Path: "/data/library.db"})
		assert.Equal(t, "/data/library-tasks.db", cfg.DBPath)
		assert.Equal(t, 4, cfg.Workers)
	})

	t.Run("explicit path wins", func(t *testing.T) {
		cfg := ConfigFrom(config.Tasks{DBPath: "/tmp/q.db"}, config.Database{Driver: config.DriverSQLite, Path: "/data/library.db"})
		assert.Equal(t, "/tmp/q.db", cfg.DBPath)
	})

	t.Run("postgres keeps default path", func(t *testing.T) {
		cfg := ConfigFrom(config.Tasks{}, config.Database{Driver: config.DriverPostgres, Path: "/data/library.db"})
		assert.Equal(t, DefaultConfig().DBPath, cfg.DBPath)
		assert.Equal(t, 2, cfg.Workers)
	})
}
