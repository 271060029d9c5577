package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datptitudu2/backendthuvienptit/internal/activity"
	"github.com/datptitudu2/backendthuvienptit/internal/auth"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

type AuthController struct {
	service  *auth.Service
	activity *activity.Service
}

func NewAuthController(service *auth.Service, activity *activity.Service) *AuthController {
	return &AuthController{service: service, activity: activity}
}

type registerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (controller *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := controller.service.Register(c.Request.Context(), req.Email, req.FullName, req.Password)
	switch {
	case err == nil:
	case auth.IsValidationError(err):
		respondBadRequest(c, err.Error())
		return
	case errors.Is(err, auth.ErrUserExists):
		respondError(c, http.StatusConflict, "email already registered")
		return
	default:
		respondInternalError(c, err, "register")
		return
	}

	if controller.activity != nil {
		controller.activity.LogAsync(c.Request.Context(), user.ID, entities.ActivityRegister, "Registered account")
	}
	respondCreated(c, gin.H{"message": "registration successful", "user": user})
}

func (controller *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := controller.service.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		respondError(c, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "login")
		return
	}

	if controller.activity != nil {
		controller.activity.LogAsync(c.Request.Context(), result.User.ID, entities.ActivityLogin, "Logged in")
	}
	c.JSON(http.StatusOK, result)
}
