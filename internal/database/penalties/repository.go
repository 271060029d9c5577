// Package penalties provides persistence for fines attached to loans.
package penalties

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

// Repository handles all penalty database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new penalties repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreatePenalty inserts an unpaid penalty.
func (r *Repository) CreatePenalty(ctx context.Context, p *entities.Penalty) error {
	p.Status = entities.PenaltyStatusUnpaid
	p.PaidAt = nil
	return r.db.WithContext(ctx).Omit("Loan").Create(p).Error
}

// GetPenaltiesForUser returns the user's penalties with loan and book, newest first.
func (r *Repository) GetPenaltiesForUser(ctx context.Context, userID uint) ([]entities.Penalty, error) {
	var out []entities.Penalty
	err := r.db.WithContext(ctx).Preload("Loan.Book").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// GetAllPenalties returns every penalty with loan, book and borrower.
func (r *Repository) GetAllPenalties(ctx context.Context) ([]entities.Penalty, error) {
	var out []entities.Penalty
	err := r.db.WithContext(ctx).Preload("Loan.Book").Preload("Loan.User").
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// UpdateStatus sets the status; paid_at follows it. Reports false if the penalty is missing.
func (r *Repository) UpdateStatus(ctx context.Context, id uint, status entities.PenaltyStatus, now time.Time) (bool, error) {
	var paidAt *time.Time
	if status == entities.PenaltyStatusPaid {
		paidAt = &now
	}
	result := r.db.WithContext(ctx).Model(&entities.Penalty{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "paid_at": paidAt})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
