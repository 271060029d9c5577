package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/datptitudu2/backendthuvienptit/internal/monitor"
)

// LowStockSweeper runs the low-stock sweep.
type LowStockSweeper interface {
	RunLowStockSweep(ctx context.Context) (monitor.SweepResult, error)
}

// LowStockSweepTask runs a low-stock sweep off the request path.
type LowStockSweepTask struct {
	RequestedAt time.Time `json:"requested_at"`
}

// Config returns the queue configuration for low-stock sweep tasks.
func (t LowStockSweepTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "low_stock_sweep",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// LowStockSweepProcessor creates a processor function for LowStockSweepTask.
func LowStockSweepProcessor(sweeper LowStockSweeper) backlite.QueueProcessor[LowStockSweepTask] {
	return func(ctx context.Context, task LowStockSweepTask) error {
		if sweeper == nil {
			return fmt.Errorf("low stock sweeper not configured")
		}
		if _, err := sweeper.RunLowStockSweep(ctx); err != nil {
			return fmt.Errorf("low stock sweep: %w", err)
		}
		return nil
	}
}

// NewLowStockSweepQueue creates a backlite queue for low-stock sweep tasks.
func NewLowStockSweepQueue(sweeper LowStockSweeper) backlite.Queue {
	return backlite.NewQueue(LowStockSweepProcessor(sweeper))
}

// LowStockTrigger enqueues a low-stock sweep instead of running it inline.
type LowStockTrigger struct {
	client *Client
	now    func() time.Time
}

func NewLowStockTrigger(client *Client) *LowStockTrigger {
	return &LowStockTrigger{client: client, now: time.Now}
}

// TriggerLowStockSweep enqueues one sweep.
func (t *LowStockTrigger) TriggerLowStockSweep(ctx context.Context) error {
	if _, err := t.client.Enqueue(ctx, LowStockSweepTask{RequestedAt: t.now().UTC()}); err != nil {
		return fmt.Errorf("enqueue low stock sweep: %w", err)
	}
	return nil
}
