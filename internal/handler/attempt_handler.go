package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/attempt"
	"github.com/traindesk/traindesk-backend/internal/middleware"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/response"
	"github.com/traindesk/traindesk-backend/internal/service"
	"github.com/traindesk/traindesk-backend/internal/validator"
)

// AttemptHandler handles the HTTP surface of evaluation attempts. The
// WebSocket stream covers the same actions for connected clients; these
// endpoints serve page loads and clients without a socket.
type AttemptHandler struct {
	attemptService *service.AttemptService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// Start godoc
// POST /api/v1/learner/evaluations/:evaluation_id/attempt
// Starts an attempt, or resumes the one already in progress. Returns
// the question payload (no correct answers) and the attempt state.
func (h *AttemptHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	payload, state, err := h.attemptService.Start(c.Request.Context(), claims.UserID, evaluationID)
	if err != nil {
		if errors.Is(err, service.ErrEvaluationNotActive) {
			response.Fail(c, http.StatusNotFound, response.ErrEvaluationNotActive)
			return
		}
		if errors.Is(err, service.ErrNoQuestions) {
			response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"evaluation": payload,
		"state":      state,
	})
}

// GetState godoc
// GET /api/v1/learner/evaluations/:evaluation_id/attempt
// Returns the current attempt state for page reloads: recorded answers,
// cursor position, and remaining time.
func (h *AttemptHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.attemptService.State(c.Request.Context(), claims.UserID, evaluationID)
	if err != nil {
		if errors.Is(err, service.ErrAttemptNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// Apply godoc
// PATCH /api/v1/learner/evaluations/:evaluation_id/attempt
// Records an answer, moves the cursor, or both. Answers may be
// overwritten freely while the attempt is in progress.
func (h *AttemptHandler) Apply(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AttemptActionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.attemptService.Apply(c.Request.Context(), claims.UserID, evaluationID, &req)
	if err != nil {
		if errors.Is(err, service.ErrAttemptNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
			return
		}
		if errors.Is(err, attempt.ErrClosed) {
			response.Fail(c, http.StatusConflict, response.ErrAttemptClosed)
			return
		}
		if errors.Is(err, attempt.ErrUnknownQuestion) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// Submit godoc
// POST /api/v1/learner/evaluations/:evaluation_id/attempt/submit
// Closes the attempt, grades the frozen answer snapshot, and returns
// the result with its per-question review.
func (h *AttemptHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, review, err := h.attemptService.Submit(c.Request.Context(), claims.UserID, evaluationID)
	if err != nil {
		if errors.Is(err, service.ErrAttemptNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
			return
		}
		if errors.Is(err, attempt.ErrClosed) {
			response.Fail(c, http.StatusConflict, response.ErrAttemptClosed)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"result": result,
		"review": review,
	})
}
