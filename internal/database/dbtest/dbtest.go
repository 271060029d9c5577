// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/datptitudu2/backendthuvienptit/internal/database"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

// Open returns a migrated SQLite database in a temp dir, closed on cleanup.
// A file is used instead of :memory: so that every pooled connection sees
// the same data.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	d, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	return d.DB.Session(&gorm.Session{Logger: logger.Default.LogMode(logger.Silent)})
}

// User inserts a user with the given role.
func User(t testing.TB, db *gorm.DB, email string, role entities.UserRole) *entities.User {
	t.Helper()
	u := &entities.User{
		Email:        email,
		FullName:     "User " + email,
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Book inserts a book with quantity copies, available of them on the shelf.
func Book(t testing.TB, db *gorm.DB, title string, quantity, available int) *entities.Book {
	t.Helper()
	b := &entities.Book{
		Title:             title,
		Author:            "Author of " + title,
		Category:          "Fiction",
		Quantity:          quantity,
		AvailableQuantity: available,
	}
	require.NoError(t, db.Create(b).Error)
	return b
}

// Loan inserts an active loan due at due.
func Loan(t testing.TB, db *gorm.DB, user *entities.User, book *entities.Book, due time.Time) *entities.Loan {
	t.Helper()
	l := &entities.Loan{
		UserID:     user.ID,
		BookID:     book.ID,
		BorrowDate: due.Add(-entities.LoanPeriod),
		DueDate:    due,
		Status:     entities.LoanStatusBorrowed,
	}
	require.NoError(t, db.Omit("Book", "User").Create(l).Error)
	return l
}

// Users inserts n plain users.
func Users(t testing.TB, db *gorm.DB, n int) []*entities.User {
	t.Helper()
	out := make([]*entities.User, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, User(t, db, fmt.Sprintf("user%d@example.com", i), entities.UserRoleUser))
	}
	return out
}
