// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByEmail(ctx, "reader@example.com")
package users

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a user. Role defaults to entities.UserRoleUser.
func (r *Repository) CreateUser(ctx context.Context, user *entities.User) error {
	if user.Role == "" {
		user.Role = entities.UserRoleUser
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether an account with this email exists.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// LockUser takes a row lock on the user for the rest of the enclosing transaction.
// The lock serializes concurrent borrows by the same user on PostgreSQL; the
// SQLite dialect drops FOR UPDATE and relies on its transaction write lock.
func (r *Repository) LockUser(ctx context.Context, id uint) error {
	var user entities.User
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&user, id).Error
}

// ListIDsByRole returns the IDs of all users with the given role.
func (r *Repository) ListIDsByRole(ctx context.Context, role entities.UserRole) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("role = ?", role).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// ListAllIDs returns the IDs of every user.
func (r *Repository) ListAllIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entities.User{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

// CountUsers returns the total number of users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, err
}
