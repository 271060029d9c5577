package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datptitudu2/backendthuvienptit/internal/auth"
	"github.com/datptitudu2/backendthuvienptit/internal/circulation"
	"github.com/datptitudu2/backendthuvienptit/internal/database/loans"
)

type BorrowsController struct {
	engine *circulation.Engine
	loans  *loans.Repository
}

func NewBorrowsController(engine *circulation.Engine, repo *loans.Repository) *BorrowsController {
	return &BorrowsController{engine: engine, loans: repo}
}

type borrowRequest struct {
	BookID uint `json:"book_id"`
}

// respondCirculationError maps engine errors onto status codes. Rejections
// carry their own message; anything else is an opaque 500.
func respondCirculationError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, circulation.ErrBookUnavailable):
		respondError(c, http.StatusBadRequest, "book is not available")
	case errors.Is(err, circulation.ErrBorrowLimitExceeded):
		respondError(c, http.StatusBadRequest, "you can borrow at most 3 books at a time")
	case errors.Is(err, circulation.ErrLoanNotFound):
		respondNotFound(c, "borrow record")
	default:
		respondInternalError(c, err, op)
	}
}

func (controller *BorrowsController) CreateBorrow(c *gin.Context) {
	var req borrowRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BookID == 0 {
		respondBadRequest(c, "book_id is required")
		return
	}

	result, err := controller.engine.Borrow(c.Request.Context(), auth.GetUserID(c), req.BookID)
	if err != nil {
		respondCirculationError(c, err, "borrow")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "book borrowed successfully",
		"data":    result,
	})
}

func (controller *BorrowsController) ReturnBook(c *gin.Context) {
	loanID, ok := parseIDParam(c, "borrow_id")
	if !ok {
		return
	}

	result, err := controller.engine.Return(c.Request.Context(), loanID, auth.GetUserID(c))
	if err != nil {
		respondCirculationError(c, err, "return")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "book returned successfully",
		"data":    result,
	})
}

func (controller *BorrowsController) GetMyBorrows(c *gin.Context) {
	list, err := controller.loans.GetLoansForUser(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list user borrows")
		return
	}
	c.JSON(http.StatusOK, gin.H{"borrows": list, "count": len(list)})
}

func (controller *BorrowsController) GetAllBorrows(c *gin.Context) {
	list, err := controller.loans.GetAllLoans(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list borrows")
		return
	}
	c.JSON(http.StatusOK, gin.H{"borrows": list, "count": len(list)})
}
