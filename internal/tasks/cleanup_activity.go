package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"
)

// ActivityCleaner provides the ability to delete old activity entries.
type ActivityCleaner interface {
	DeleteOldActivities(ctx context.Context, retention time.Duration) (int64, error)
}

// CleanupActivitiesTask removes activity entries older than the configured retention period.
type CleanupActivitiesTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for activity cleanup tasks.
func (t CleanupActivitiesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_activities",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupActivitiesProcessor creates a processor function for CleanupActivitiesTask.
func CleanupActivitiesProcessor(cleaner ActivityCleaner) backlite.QueueProcessor[CleanupActivitiesTask] {
	return func(ctx context.Context, task CleanupActivitiesTask) error {
		if cleaner == nil {
			return fmt.Errorf("activity cleaner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 180
		}
		retention := time.Duration(retentionDays) * 24 * time.Hour

		deleted, err := cleaner.DeleteOldActivities(ctx, retention)
		if err != nil {
			return fmt.Errorf("cleanup activities: %w", err)
		}

		log.Info().Int64("deleted", deleted).Int("retention_days", retentionDays).Msg("Cleaned up old activities")
		return nil
	}
}

// NewCleanupActivitiesQueue creates a backlite queue for activity cleanup tasks.
func NewCleanupActivitiesQueue(cleaner ActivityCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupActivitiesProcessor(cleaner))
}

// EnqueueActivityCleanup adds one cleanup task.
func EnqueueActivityCleanup(ctx context.Context, client *Client, retentionDays int) error {
	if _, err := client.Enqueue(ctx, CleanupActivitiesTask{RetentionDays: retentionDays}); err != nil {
		return fmt.Errorf("enqueue activity cleanup: %w", err)
	}
	return nil
}
