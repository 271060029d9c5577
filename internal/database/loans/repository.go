// Package loans provides persistence for borrow records.
package loans

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

// Repository handles all loan database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new loans repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateLoan inserts a new borrow record.
func (r *Repository) CreateLoan(ctx context.Context, loan *entities.Loan) error {
	return r.db.WithContext(ctx).Omit("Book", "User").Create(loan).Error
}

// withDeleted loads books removed from the catalog, for loan history.
func withDeleted(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// GetLoanByID retrieves a loan with its book.
func (r *Repository) GetLoanByID(ctx context.Context, id uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.db.WithContext(ctx).Preload("Book", withDeleted).First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// CountActiveLoans returns how many loans the user currently holds.
func (r *Repository) CountActiveLoans(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Loan{}).
		Where("user_id = ? AND status = ?", userID, entities.LoanStatusBorrowed).
		Count(&count).Error
	return count, err
}

// GetActiveLoan returns the loan only if it belongs to userID and is still
// borrowed; otherwise gorm.ErrRecordNotFound.
func (r *Repository) GetActiveLoan(ctx context.Context, loanID, userID uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.db.WithContext(ctx).Preload("Book").
		Where("id = ? AND user_id = ? AND status = ?", loanID, userID, entities.LoanStatusBorrowed).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// MarkReturned moves a borrowed loan to returned. It reports false when the
// loan is missing, foreign, or already returned.
func (r *Repository) MarkReturned(ctx context.Context, loanID, userID uint, returnDate time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.Loan{}).
		Where("id = ? AND user_id = ? AND status = ?", loanID, userID, entities.LoanStatusBorrowed).
		Updates(map[string]any{
			"status":      entities.LoanStatusReturned,
			"return_date": returnDate,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// GetLoansForUser returns the user's loans with book details, newest first.
func (r *Repository) GetLoansForUser(ctx context.Context, userID uint) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.WithContext(ctx).Preload("Book", withDeleted).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&loans).Error
	return loans, err
}

// GetAllLoans returns every loan with book and user, newest first.
func (r *Repository) GetAllLoans(ctx context.Context) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.WithContext(ctx).Preload("Book", withDeleted).Preload("User").
		Order("created_at DESC, id DESC").
		Find(&loans).Error
	return loans, err
}

// GetLoansDueBetween returns borrowed loans with from <= due_date <= to.
func (r *Repository) GetLoansDueBetween(ctx context.Context, from, to time.Time) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.WithContext(ctx).Preload("Book").
		Where("status = ? AND due_date >= ? AND due_date <= ?", entities.LoanStatusBorrowed, from.UTC(), to.UTC()).
		Order("due_date ASC, id ASC").
		Find(&loans).Error
	return loans, err
}

// GetOverdueLoans returns borrowed loans with due_date < before.
func (r *Repository) GetOverdueLoans(ctx context.Context, before time.Time) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.WithContext(ctx).Preload("Book").
		Where("status = ? AND due_date < ?", entities.LoanStatusBorrowed, before.UTC()).
		Order("due_date ASC, id ASC").
		Find(&loans).Error
	return loans, err
}
