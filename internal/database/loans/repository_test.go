package loans

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/database/dbtest"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

func TestRepository_CreateAndGetActiveLoan(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := dbtest.User(t, db, "reader@example.com", entities.UserRoleUser)
	other := dbtest.User(t, db, "other@example.com", entities.UserRoleUser)
	book := dbtest.Book(t, db, "Dune", 2, 2)

	today := entities.DateOf(time.Now())
	loan := &entities.Loan{
		UserID:     user.ID,
		BookID:     book.ID,
		BorrowDate: today,
		DueDate:    today.Add(entities.LoanPeriod),
		Status:     entities.LoanStatusBorrowed,
	}
	require.NoError(t, repo.CreateLoan(ctx, loan))
	assert.NotZero(t, loan.ID)

	got, err := repo.GetActiveLoan(ctx, loan.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Book)
	assert.Equal(t, "Dune", got.Book.Title)
	assert.True(t, got.DueDate.Equal(today.Add(entities.LoanPeriod)))

	_, err = repo.GetActiveLoan(ctx, loan.ID, other.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	count, err := repo.CountActiveLoans(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_MarkReturned(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := dbtest.User(t, db, "reader@example.com", entities.UserRoleUser)
	other := dbtest.User(t, db, "other@example.com", entities.UserRoleUser)
	book := dbtest.Book(t, db, "Dune", 1, 0)
	loan := dbtest.Loan(t, db, user, book, entities.DateOf(time.Now()).Add(entities.LoanPeriod))
	returned := entities.DateOf(time.Now())

	ok, err := repo.MarkReturned(ctx, loan.ID, other.ID, returned)
	require.NoError(t, err)
	assert.False(t, ok, "foreign loan must not be returned")

	ok, err = repo.MarkReturned(ctx, loan.ID, user.ID, returned)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkReturned(ctx, loan.ID, user.ID, returned)
	require.NoError(t, err)
	assert.False(t, ok, "second return must be rejected")

	got, err := repo.GetLoanByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.LoanStatusReturned, got.Status)
	require.NotNil(t, got.ReturnDate)
	assert.True(t, got.ReturnDate.Equal(returned))

	count, err := repo.CountActiveLoans(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepository_DueQueries(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := dbtest.User(t, db, "reader@example.com", entities.UserRoleUser)
	book := dbtest.Book(t, db, "Dune", 5, 1)

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	dueSoon := dbtest.Loan(t, db, user, book, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC))
	dbtest.Loan(t, db, user, book, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	overdue := dbtest.Loan(t, db, user, book, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	settled := dbtest.Loan(t, db, user, book, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	_, err := repo.MarkReturned(ctx, settled.ID, user.ID, now)
	require.NoError(t, err)

	soon, err := repo.GetLoansDueBetween(ctx, now, now.Add(72*time.Hour))
	require.NoError(t, err)
	require.Len(t, soon, 1)
	assert.Equal(t, dueSoon.ID, soon[0].ID)
	require.NotNil(t, soon[0].Book)

	late, err := repo.GetOverdueLoans(ctx, now)
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, overdue.ID, late[0].ID)
}

func TestRepository_ListLoans(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	alice := dbtest.User(t, db, "alice@example.com", entities.UserRoleUser)
	bob := dbtest.User(t, db, "bob@example.com", entities.UserRoleUser)
	book := dbtest.Book(t, db, "Dune", 5, 3)
	due := entities.DateOf(time.Now()).Add(entities.LoanPeriod)
	dbtest.Loan(t, db, alice, book, due)
	dbtest.Loan(t, db, bob, book, due)

	mine, err := repo.GetLoansForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, alice.ID, mine[0].UserID)

	all, err := repo.GetAllLoans(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, l := range all {
		require.NotNil(t, l.User)
		require.NotNil(t, l.Book)
	}
}
