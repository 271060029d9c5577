package http

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/auth"
	"github.com/datptitudu2/backendthuvienptit/internal/database/books"
	"github.com/datptitudu2/backendthuvienptit/internal/database/reviews"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

type ReviewsController struct {
	reviews *reviews.Repository
	books   *books.Repository
}

func NewReviewsController(repo *reviews.Repository, bookRepo *books.Repository) *ReviewsController {
	return &ReviewsController{reviews: repo, books: bookRepo}
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// GetBookReviews lists a book's active reviews with its average rating.
func (controller *ReviewsController) GetBookReviews(c *gin.Context) {
	bookID, ok := parseIDParam(c, "book_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := controller.books.GetBookByID(ctx, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	p := parsePagination(c)
	list, total, err := controller.reviews.ListForBook(ctx, bookID, p.Limit, p.Offset())
	if err != nil {
		respondInternalError(c, err, "list reviews")
		return
	}
	avg, err := controller.reviews.AverageRating(ctx, bookID)
	if err != nil {
		respondInternalError(c, err, "average rating")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"book_id":        bookID,
		"average_rating": math.Round(avg*10) / 10,
		"reviews":        newPaginatedResponse(list, total, p),
	})
}

// CreateReview rates a book. Each reader keeps one active review per book.
func (controller *ReviewsController) CreateReview(c *gin.Context) {
	bookID, ok := parseIDParam(c, "book_id")
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	review := &entities.Review{
		BookID:  bookID,
		UserID:  auth.GetUserID(c),
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	err := controller.reviews.CreateReview(c.Request.Context(), review)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondNotFound(c, "book")
		return
	case errors.Is(err, reviews.ErrInvalidRating), errors.Is(err, reviews.ErrAlreadyReviewed):
		respondBadRequest(c, err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "create review")
		return
	}
	respondCreated(c, review)
}

// UpdateReview edits the caller's own review; others are reported missing.
func (controller *ReviewsController) UpdateReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	found, err := controller.reviews.UpdateReview(ctx, id, auth.GetUserID(c), req.Rating, req.Comment)
	if errors.Is(err, reviews.ErrInvalidRating) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "update review")
		return
	}
	if !found {
		respondNotFound(c, "review")
		return
	}

	review, err := controller.reviews.GetReview(ctx, id)
	if err != nil {
		respondInternalError(c, err, "get review")
		return
	}
	c.JSON(http.StatusOK, review)
}

// DeleteReview hides the caller's own review.
func (controller *ReviewsController) DeleteReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	found, err := controller.reviews.DeactivateReview(c.Request.Context(), id, auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "delete review")
		return
	}
	if !found {
		respondNotFound(c, "review")
		return
	}
	respondSuccess(c, "review deleted")
}

func (controller *ReviewsController) GetMyReviews(c *gin.Context) {
	p := parsePagination(c)
	list, total, err := controller.reviews.ListForUser(c.Request.Context(), auth.GetUserID(c), p.Limit, p.Offset())
	if err != nil {
		respondInternalError(c, err, "list my reviews")
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(list, total, p))
}
