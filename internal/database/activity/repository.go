// Package activity provides persistence for the user activity log.
package activity

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogActivity saves an activity entry.
func (r *Repository) LogActivity(ctx context.Context, a *entities.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(a).Error
}

// GetActivities retrieves paginated activities, most recent first.
// A zero userID returns activities of every user; an empty action matches all actions.
func (r *Repository) GetActivities(ctx context.Context, userID uint, action string, limit, offset int) ([]entities.Activity, int64, error) {
	var out []entities.Activity
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.Activity{})
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if action != "" {
		query = query.Where("action = ?", action)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

// DeleteOlderThan removes activities created before the cutoff and returns how many were deleted.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&entities.Activity{})
	return result.RowsAffected, result.Error
}
