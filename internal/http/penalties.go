package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/auth"
	"github.com/datptitudu2/backendthuvienptit/internal/database/loans"
	"github.com/datptitudu2/backendthuvienptit/internal/database/penalties"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

type PenaltiesController struct {
	penalties *penalties.Repository
	loans     *loans.Repository
	now       func() time.Time
}

func NewPenaltiesController(repo *penalties.Repository, loans *loans.Repository) *PenaltiesController {
	return &PenaltiesController{penalties: repo, loans: loans, now: time.Now}
}

type createPenaltyRequest struct {
	BorrowID uint    `json:"borrow_id"`
	Reason   string  `json:"reason"`
	Amount   float64 `json:"amount"`
}

type updatePenaltyStatusRequest struct {
	Status entities.PenaltyStatus `json:"status"`
}

func (controller *PenaltiesController) GetMyPenalties(c *gin.Context) {
	list, err := controller.penalties.GetPenaltiesForUser(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list user penalties")
		return
	}
	c.JSON(http.StatusOK, gin.H{"penalties": list, "count": len(list)})
}

func (controller *PenaltiesController) GetAllPenalties(c *gin.Context) {
	list, err := controller.penalties.GetAllPenalties(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list penalties")
		return
	}
	c.JSON(http.StatusOK, gin.H{"penalties": list, "count": len(list)})
}

// CreatePenalty fines the borrower of an existing loan.
func (controller *PenaltiesController) CreatePenalty(c *gin.Context) {
	var req createPenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BorrowID == 0 {
		respondBadRequest(c, "borrow_id is required")
		return
	}
	if req.Amount < 0 {
		respondBadRequest(c, "amount must not be negative")
		return
	}

	ctx := c.Request.Context()
	loan, err := controller.loans.GetLoanByID(ctx, req.BorrowID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "borrow record")
		return
	}
	if err != nil {
		respondInternalError(c, err, "load loan for penalty")
		return
	}

	penalty := &entities.Penalty{
		LoanID: loan.ID,
		UserID: loan.UserID,
		Reason: strings.TrimSpace(req.Reason),
		Amount: req.Amount,
	}
	if err := controller.penalties.CreatePenalty(ctx, penalty); err != nil {
		respondInternalError(c, err, "create penalty")
		return
	}
	respondCreated(c, penalty)
}

func (controller *PenaltiesController) UpdatePenaltyStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updatePenaltyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Status != entities.PenaltyStatusPaid && req.Status != entities.PenaltyStatusUnpaid {
		respondBadRequest(c, "status must be paid or unpaid")
		return
	}

	found, err := controller.penalties.UpdateStatus(c.Request.Context(), id, req.Status, controller.now().UTC())
	if err != nil {
		respondInternalError(c, err, "update penalty status")
		return
	}
	if !found {
		respondNotFound(c, "penalty")
		return
	}
	respondSuccess(c, "penalty status updated")
}
