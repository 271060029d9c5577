package scheduler

import (
	"context"

	"github.com/datptitudu2/backendthuvienptit/internal/config"
	"github.com/datptitudu2/backendthuvienptit/internal/monitor"
)

// SweepRunner runs a monitor sweep by name.
type SweepRunner interface {
	Run(ctx context.Context, name string) (monitor.SweepResult, error)
}

// MonitorJobs returns one job per monitor sweep on its configured schedule.
func MonitorJobs(runner SweepRunner, cfg config.Monitor) []Job {
	schedules := map[string]string{
		monitor.SweepDueSoon:  cfg.DueSoonSchedule,
		monitor.SweepLowStock: cfg.LowStockSchedule,
		monitor.SweepOverdue:  cfg.OverdueSchedule,
	}

	jobs := make([]Job, 0, len(schedules))
	for _, name := range monitor.SweepNames() {
		name := name
		jobs = append(jobs, Job{
			Name:     name,
			Schedule: schedules[name],
			Run: func(ctx context.Context) error {
				_, err := runner.Run(ctx, name)
				return err
			},
		})
	}
	return jobs
}
