// Package favorites provides persistence for users' wish lists.
package favorites

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

// ErrAlreadyFavorite is returned when the book is already on the list.
var ErrAlreadyFavorite = errors.New("book is already in favorites")

// Repository handles all favorites database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new favorites repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddFavorite puts a catalog book on the user's list. Missing books yield
// gorm.ErrRecordNotFound.
func (r *Repository) AddFavorite(ctx context.Context, userID, bookID uint) (*entities.Favorite, error) {
	fav := &entities.Favorite{UserID: userID, BookID: bookID}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.Select("id").First(&book, bookID).Error; err != nil {
			return err
		}
		result := tx.Omit("Book", "User").
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(fav)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyFavorite
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fav, nil
}

// RemoveFavorite takes the book off the list. It reports false when it was
// not there.
func (r *Repository) RemoveFavorite(ctx context.Context, userID, bookID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&entities.Favorite{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListFavorites returns the user's list with books, most recent first.
// Books later removed from the catalog are skipped.
func (r *Repository) ListFavorites(ctx context.Context, userID uint) ([]entities.Favorite, error) {
	var out []entities.Favorite
	err := r.db.WithContext(ctx).
		InnerJoins("Book").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC, favorites.id DESC").
		Find(&out).Error
	return out, err
}

// IsFavorite reports whether the book is on the user's list.
func (r *Repository) IsFavorite(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Favorite{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	return count > 0, err
}
