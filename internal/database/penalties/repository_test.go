package penalties

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datptitudu2/backendthuvienptit/internal/database/dbtest"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

func TestRepository_PenaltyLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := dbtest.User(t, db, "reader@example.com", entities.UserRoleUser)
	book := dbtest.Book(t, db, "Dune", 1, 0)
	loan := dbtest.Loan(t, db, user, book, entities.DateOf(time.Now()).Add(-48*time.Hour))

	p := &entities.Penalty{LoanID: loan.ID, UserID: user.ID, Reason: "Late return", Amount: 15000, Status: entities.PenaltyStatusPaid}
	require.NoError(t, repo.CreatePenalty(ctx, p))
	assert.Equal(t, entities.PenaltyStatusUnpaid, p.Status)

	mine, err := repo.GetPenaltiesForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Loan)
	require.NotNil(t, mine[0].Loan.Book)
	assert.Equal(t, "Dune", mine[0].Loan.Book.Title)

	now := time.Now().UTC()
	ok, err := repo.UpdateStatus(ctx, p.ID, entities.PenaltyStatusPaid, now)
	require.NoError(t, err)
	assert.True(t, ok)

	all, err := repo.GetAllPenalties(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, entities.PenaltyStatusPaid, all[0].Status)
	require.NotNil(t, all[0].PaidAt)
	require.NotNil(t, all[0].Loan.User)

	ok, err = repo.UpdateStatus(ctx, p.ID, entities.PenaltyStatusUnpaid, now)
	require.NoError(t, err)
	assert.True(t, ok)

	mine, err = repo.GetPenaltiesForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, mine[0].PaidAt)

	ok, err = repo.UpdateStatus(ctx, 9999, entities.PenaltyStatusPaid, now)
	require.NoError(t, err)
	assert.False(t, ok)
}
