package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/traindesk/traindesk-backend/internal/middleware"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/response"
	"github.com/traindesk/traindesk-backend/internal/service"
	"github.com/traindesk/traindesk-backend/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// Login godoc
// POST /api/v1/auth/login
// Validates email + password and returns a JWT. Learners get a
// single-device session; a second login while one is active is rejected.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	var token string
	if user.Role == model.RoleLearner {
		token, err = h.authService.GenerateLearnerToken(c.Request.Context(), user.ID)
	} else {
		token, err = h.authService.GenerateStaffToken(user.ID, user.Role)
	}
	if err != nil {
		if errors.Is(err, service.ErrSessionAlreadyActive) {
			response.Fail(c, http.StatusConflict, response.ErrSessionActive)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.LoginResponse{Token: token, User: *user})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// Logout godoc
// POST /api/v1/auth/logout
// Releases the learner's single-device session. A no-op for staff.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if claims.Role == model.RoleLearner {
		if err := h.authService.ResetLearnerSession(c.Request.Context(), claims.UserID); err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
	}

	response.Success(c, http.StatusOK, gin.H{})
}
