package http

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datptitudu2/backendthuvienptit/internal/database/dbtest"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

type bookReviews struct {
	BookID        uint    `json:"book_id"`
	AverageRating float64 `json:"average_rating"`
	Reviews       struct {
		Data  []entities.Review `json:"data"`
		Total int64             `json:"total"`
	} `json:"reviews"`
}

func TestReviews_Flow(t *testing.T) {
	s := newTestServer(t)
	book := dbtest.Book(t, s.db, "Dune", 1, 1)
	path := "/api/reviews/book/" + itoa(book.ID)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, path, "", gin.H{"rating": 5}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, path, s.readerToken, gin.H{"rating": 6}).Code)
	assert.Equal(t, http.StatusNotFound,
		s.do(t, http.MethodPost, "/api/reviews/book/999", s.readerToken, gin.H{"rating": 5}).Code)

	w := s.do(t, http.MethodPost, path, s.readerToken, gin.H{"rating": 5, "comment": "Spice must flow"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	mine := decode[entities.Review](t, w)

	w = s.do(t, http.MethodPost, path, s.readerToken, gin.H{"rating": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already reviewed")

	w = s.do(t, http.MethodPost, path, s.adminToken, gin.H{"rating": 2})
	require.Equal(t, http.StatusCreated, w.Code)

	// Listing is public.
	w = s.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listing := decode[bookReviews](t, w)
	assert.InDelta(t, 3.5, listing.AverageRating, 1e-9)
	assert.EqualValues(t, 2, listing.Reviews.Total)
	assert.Contains(t, w.Body.String(), `"user_name":"Reader One"`)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/reviews/book/999", "", nil).Code)

	reviewPath := "/api/reviews/" + itoa(mine.ID)
	assert.Equal(t, http.StatusNotFound,
		s.do(t, http.MethodPut, reviewPath, s.adminToken, gin.H{"rating": 1}).Code, "not the author")
	assert.Equal(t, http.StatusBadRequest,
		s.do(t, http.MethodPut, reviewPath, s.readerToken, gin.H{"rating": 0}).Code)

	w = s.do(t, http.MethodPut, reviewPath, s.readerToken, gin.H{"rating": 4, "comment": "Slow middle"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 4, decode[entities.Review](t, w).Rating)

	w = s.do(t, http.MethodGet, "/api/reviews/my-reviews", s.readerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"book_title":"Dune"`)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, reviewPath, s.adminToken, nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, reviewPath, s.readerToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, reviewPath, s.readerToken, nil).Code)

	listing = decode[bookReviews](t, s.do(t, http.MethodGet, path, "", nil))
	assert.EqualValues(t, 1, listing.Reviews.Total)
	assert.InDelta(t, 2.0, listing.AverageRating, 1e-9)
}
