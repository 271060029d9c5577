// Package notifications provides persistence for the notification inbox.
package notifications

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

// DefaultInboxLimit caps the number of notifications returned to a user.
const DefaultInboxLimit = 50

// Filter narrows the admin notification listing.
type Filter struct {
	Search string // matched against title, message and the recipient's full name
	Type   string
	Limit  int
	Offset int
}

// Repository handles all notification database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new notifications repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateNotification appends a notification.
func (r *Repository) CreateNotification(ctx context.Context, n *entities.Notification) error {
	return r.db.WithContext(ctx).Omit("User").Create(n).Error
}

// CreateNotificationOnce appends a notification unless one with the same
// DedupeKey exists. It reports whether a row was inserted.
func (r *Repository) CreateNotificationOnce(ctx context.Context, n *entities.Notification) (bool, error) {
	result := r.db.WithContext(ctx).Omit("User").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(n)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CreateNotifications appends the same notification for every user.
func (r *Repository) CreateNotifications(ctx context.Context, userIDs []uint, kind entities.NotificationType, title, message string) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	rows := make([]entities.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, entities.Notification{
			UserID:  id,
			Type:    kind,
			Title:   title,
			Message: message,
		})
	}
	if err := r.db.WithContext(ctx).Omit("User").CreateInBatches(rows, 200).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}

// GetForUser returns the user's most recent notifications.
func (r *Repository) GetForUser(ctx context.Context, userID uint, limit int) ([]entities.Notification, error) {
	if limit <= 0 {
		limit = DefaultInboxLimit
	}
	var out []entities.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountUnread returns how many of the user's notifications are unread.
func (r *Repository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flags one of the user's notifications as read. It reports false
// when the notification does not exist or belongs to someone else.
func (r *Repository) MarkRead(ctx context.Context, id, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Search returns a page of notifications across all users with the total count.
func (r *Repository) Search(ctx context.Context, f Filter) ([]entities.Notification, int64, error) {
	var out []entities.Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.Notification{}).
		Joins("LEFT JOIN users ON users.id = notifications.user_id")
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where(
			"notifications.title LIKE ? OR notifications.message LIKE ? OR users.full_name LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if f.Type != "" {
		query = query.Where("notifications.type = ?", f.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	err := query.Preload("User").
		Order("notifications.created_at DESC, notifications.id DESC").
		Limit(f.Limit).Offset(f.Offset).
		Find(&out).Error
	return out, total, err
}

// DeleteNotification removes one notification.
func (r *Repository) DeleteNotification(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&entities.Notification{}, id)
	return result.RowsAffected > 0, result.Error
}

// DeleteNotifications removes the given notifications and returns how many were deleted.
func (r *Repository) DeleteNotifications(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&entities.Notification{})
	return result.RowsAffected, result.Error
}
