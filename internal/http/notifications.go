package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/datptitudu2/backendthuvienptit/internal/auth"
	"github.com/datptitudu2/backendthuvienptit/internal/database/notifications"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
	"github.com/datptitudu2/backendthuvienptit/internal/notify"
)

type NotificationsController struct {
	repo     *notifications.Repository
	notifier *notify.Service
}

func NewNotificationsController(repo *notifications.Repository, notifier *notify.Service) *NotificationsController {
	return &NotificationsController{repo: repo, notifier: notifier}
}

type createNotificationsRequest struct {
	// UserIDs is either the string "all" or a list of user ids.
	UserIDs json.RawMessage `json:"user_ids"`
	Type    string          `json:"type"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
}

type deleteNotificationsRequest struct {
	IDs []uint `json:"ids"`
}

// recipients decodes user_ids. all is true for the literal "all".
func (r createNotificationsRequest) recipients() (ids []uint, all bool, ok bool) {
	var s string
	if err := json.Unmarshal(r.UserIDs, &s); err == nil {
		return nil, s == "all", s == "all"
	}
	if err := json.Unmarshal(r.UserIDs, &ids); err != nil || len(ids) == 0 {
		return nil, false, false
	}
	return ids, false, true
}

// GetUserNotifications returns the caller's latest notifications.
func (controller *NotificationsController) GetUserNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.GetUserID(c)

	list, err := controller.repo.GetForUser(ctx, userID, notifications.DefaultInboxLimit)
	if err != nil {
		respondInternalError(c, err, "list notifications")
		return
	}
	unread, err := controller.repo.CountUnread(ctx, userID)
	if err != nil {
		respondInternalError(c, err, "count unread notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unread": unread})
}

// MarkAsRead flags one of the caller's notifications as read. Notifications
// of other users are reported as missing.
func (controller *NotificationsController) MarkAsRead(c *gin.Context) {
	id, ok := parseIDParam(c, "notificationId")
	if !ok {
		return
	}

	found, err := controller.repo.MarkRead(c.Request.Context(), id, auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "mark notification read")
		return
	}
	if !found {
		respondNotFound(c, "notification")
		return
	}
	respondSuccess(c, "notification marked as read")
}

func (controller *NotificationsController) ListNotifications(c *gin.Context) {
	p := parsePagination(c)
	list, total, err := controller.repo.Search(c.Request.Context(), notifications.Filter{
		Search: strings.TrimSpace(c.Query("search")),
		Type:   c.Query("type"),
		Limit:  p.Limit,
		Offset: p.Offset(),
	})
	if err != nil {
		respondInternalError(c, err, "search notifications")
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(list, total, p))
}

func (controller *NotificationsController) CreateNotifications(c *gin.Context) {
	var req createNotificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	req.Type = strings.TrimSpace(req.Type)
	req.Title = strings.TrimSpace(req.Title)
	if req.Type == "" || req.Title == "" || strings.TrimSpace(req.Message) == "" {
		respondBadRequest(c, "user_ids, type, title and message are required")
		return
	}
	ids, all, ok := req.recipients()
	if !ok {
		respondBadRequest(c, `user_ids must be "all" or a non-empty list of ids`)
		return
	}

	ctx := c.Request.Context()
	kind := entities.NotificationType(req.Type)
	var (
		created int
		err     error
	)
	if all {
		created, err = controller.notifier.NotifyAll(ctx, kind, req.Title, req.Message)
	} else {
		created, err = controller.notifier.NotifyUsers(ctx, ids, kind, req.Title, req.Message)
	}
	if err != nil {
		respondInternalError(c, err, "create notifications")
		return
	}
	respondCreated(c, gin.H{"message": "notifications created", "created": created})
}

func (controller *NotificationsController) DeleteNotification(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	found, err := controller.repo.DeleteNotification(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "delete notification")
		return
	}
	if !found {
		respondNotFound(c, "notification")
		return
	}
	respondSuccess(c, "notification deleted")
}

func (controller *NotificationsController) DeleteNotifications(c *gin.Context) {
	var req deleteNotificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		respondBadRequest(c, "ids must be a non-empty list")
		return
	}

	deleted, err := controller.repo.DeleteNotifications(c.Request.Context(), req.IDs)
	if err != nil {
		respondInternalError(c, err, "delete notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notifications deleted", "deleted": deleted})
}
