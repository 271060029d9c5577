// Package reviews provides persistence for book ratings.
//
// A user holds at most one active review per book. Deleting a review only
// clears is_active, so listings and averages filter on it.
package reviews

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

var (
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrAlreadyReviewed = errors.New("you have already reviewed this book")
)

// Repository handles all review database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reviews repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateReview stores an active review. Missing books yield
// gorm.ErrRecordNotFound.
func (r *Repository) CreateReview(ctx context.Context, review *entities.Review) error {
	if !entities.ValidRating(review.Rating) {
		return ErrInvalidRating
	}
	review.Comment = strings.TrimSpace(review.Comment)
	review.IsActive = true

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.Select("id").First(&book, review.BookID).Error; err != nil {
			return err
		}

		var existing int64
		err := tx.Model(&entities.Review{}).
			Where("book_id = ? AND user_id = ? AND is_active = ?", review.BookID, review.UserID, true).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyReviewed
		}
		return tx.Omit("Book", "User").Create(review).Error
	})
}

// GetReview returns an active review, or gorm.ErrRecordNotFound.
func (r *Repository) GetReview(ctx context.Context, id uint) (*entities.Review, error) {
	var review entities.Review
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ListForBook returns one page of a book's active reviews with the
// reviewer's name, newest first, and the total count.
func (r *Repository) ListForBook(ctx context.Context, bookID uint, limit, offset int) ([]entities.Review, int64, error) {
	active := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&entities.Review{}).
			Where("reviews.book_id = ? AND reviews.is_active = ?", bookID, true)
	}

	var total int64
	if err := active().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []entities.Review
	query := active().
		Select("reviews.*, users.full_name AS user_name").
		Joins("JOIN users ON users.id = reviews.user_id").
		Order("reviews.created_at DESC, reviews.id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&out).Error
	return out, total, err
}

// AverageRating returns the mean of a book's active ratings, 0 when unrated.
func (r *Repository) AverageRating(ctx context.Context, bookID uint) (float64, error) {
	var avg sql.NullFloat64
	err := r.db.WithContext(ctx).Model(&entities.Review{}).
		Select("AVG(rating)").
		Where("book_id = ? AND is_active = ?", bookID, true).
		Row().Scan(&avg)
	if err != nil {
		return 0, err
	}
	return avg.Float64, nil
}

// ListForUser returns one page of the user's active reviews with book
// titles, newest first, and the total count.
func (r *Repository) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]entities.Review, int64, error) {
	active := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&entities.Review{}).
			Where("reviews.user_id = ? AND reviews.is_active = ?", userID, true)
	}

	var total int64
	if err := active().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []entities.Review
	query := active().
		Select("reviews.*, books.title AS book_title").
		Joins("JOIN books ON books.id = reviews.book_id").
		Order("reviews.created_at DESC, reviews.id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&out).Error
	return out, total, err
}

// UpdateReview changes rating and comment of the user's own active review.
// It reports false when no such review exists.
func (r *Repository) UpdateReview(ctx context.Context, id, userID uint, rating int, comment string) (bool, error) {
	if !entities.ValidRating(rating) {
		return false, ErrInvalidRating
	}
	result := r.db.WithContext(ctx).Model(&entities.Review{}).
		Where("id = ? AND user_id = ? AND is_active = ?", id, userID, true).
		Updates(map[string]any{"rating": rating, "comment": strings.TrimSpace(comment)})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeactivateReview hides the user's own review. It reports false when no
// such active review exists.
func (r *Repository) DeactivateReview(ctx context.Context, id, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.Review{}).
		Where("id = ? AND user_id = ? AND is_active = ?", id, userID, true).
		Update("is_active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
