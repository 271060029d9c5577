package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datptitudu2/backendthuvienptit/internal/activity"
	"github.com/datptitudu2/backendthuvienptit/internal/auth"
)

type ActivitiesController struct {
	service *activity.Service
}

func NewActivitiesController(service *activity.Service) *ActivitiesController {
	return &ActivitiesController{service: service}
}

// GetMyActivities pages through the caller's activity trail, optionally
// narrowed to one ?action=.
func (controller *ActivitiesController) GetMyActivities(c *gin.Context) {
	p := parsePagination(c)
	list, total, err := controller.service.GetActivities(c.Request.Context(),
		auth.GetUserID(c), c.Query("action"), p.Limit, p.Offset())
	if err != nil {
		respondInternalError(c, err, "list activities")
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(list, total, p))
}
