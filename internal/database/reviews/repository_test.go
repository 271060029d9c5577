package reviews

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/database/dbtest"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

func TestRepository_CreateReview(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	reader := dbtest.User(t, db, "reader@example.com", entities.UserRoleUser)
	book := dbtest.Book(t, db, "Dune", 1, 1)

	review := &entities.Review{BookID: book.ID, UserID: reader.ID, Rating: 5, Comment: "  Spice!  "}
	require.NoError(t, repo.CreateReview(ctx, review))
	assert.NotZero(t, review.ID)
	assert.Equal(t, "Spice!", review.Comment)

	err := repo.CreateReview(ctx, &entities.Review{BookID: book.ID, UserID: reader.ID, Rating: 3})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	for _, rating := range []int{0, 6, -1} {
		err := repo.CreateReview(ctx, &entities.Review{BookID: book.ID, UserID: reader.ID, Rating: rating})
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", rating)
	}

	err = repo.CreateReview(ctx, &entities.Review{BookID: 9999, UserID: reader.ID, Rating: 4})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	t.Run("deactivated review can be written again", func(t *testing.T) {
		ok, err := repo.DeactivateReview(ctx, review.ID, reader.ID)
		require.NoError(t, err)
		require.True(t, ok)

		again := &entities.Review{BookID: book.ID, UserID: reader.ID, Rating: 2}
		require.NoError(t, repo.CreateReview(ctx, again))
		assert.NotEqual(t, review.ID, again.ID)
	})
}

func TestRepository_ListAndAverage(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	users := dbtest.Users(t, db, 3)
	book := dbtest.Book(t, db, "Dune", 1, 1)
	unrated := dbtest.Book(t, db, "Emma", 1, 1)

	for i, rating := range []int{5, 4, 1} {
		require.NoError(t, repo.CreateReview(ctx, &entities.Review{BookID: book.ID, UserID: users[i].ID, Rating: rating}))
	}

	avg, err := repo.AverageRating(ctx, book.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10.0/3.0, avg, 1e-9)

	avg, err = repo.AverageRating(ctx, unrated.ID)
	require.NoError(t, err)
	assert.Zero(t, avg)

	page, total, err := repo.ListForBook(ctx, book.ID, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, users[2].FullName, page[0].UserName, "newest first")

	// The lowest rating is hidden once deactivated.
	ok, err := repo.DeactivateReview(ctx, page[0].ID, users[2].ID)
	require.NoError(t, err)
	require.True(t, ok)

	avg, err = repo.AverageRating(ctx, book.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, avg, 1e-9)

	_, total, err = repo.ListForBook(ctx, book.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	mine, total, err := repo.ListForUser(ctx, users[0].ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, mine, 1)
	assert.Equal(t, "Dune", mine[0].BookTitle)
}

func TestRepository_UpdateReview(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	users := dbtest.Users(t, db, 2)
	book := dbtest.Book(t, db, "Dune", 1, 1)
	review := &entities.Review{BookID: book.ID, UserID: users[0].ID, Rating: 2}
	require.NoError(t, repo.CreateReview(ctx, review))

	ok, err := repo.UpdateReview(ctx, review.ID, users[1].ID, 5, "not mine")
	require.NoError(t, err)
	assert.False(t, ok, "only the author may edit")

	_, err = repo.UpdateReview(ctx, review.ID, users[0].ID, 9, "")
	assert.ErrorIs(t, err, ErrInvalidRating)

	ok, err = repo.UpdateReview(ctx, review.ID, users[0].ID, 4, " better on reread ")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rating)
	assert.Equal(t, "better on reread", got.Comment)

	ok, err = repo.DeactivateReview(ctx, review.ID, users[1].ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DeactivateReview(ctx, review.ID, users[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.GetReview(ctx, review.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	ok, err = repo.UpdateReview(ctx, review.ID, users[0].ID, 3, "")
	require.NoError(t, err)
	assert.False(t, ok, "deactivated reviews are read-only")
}
