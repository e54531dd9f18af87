package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/middleware"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/response"
	"github.com/traindesk/traindesk-backend/internal/service"
	"github.com/traindesk/traindesk-backend/internal/validator"
)

// EvaluationHandler handles the staff evaluation authoring surface:
// CRUD, activation, and the results listing.
type EvaluationHandler struct {
	evaluationService *service.EvaluationService
	resultService     *service.ResultService
}

// NewEvaluationHandler creates a new EvaluationHandler.
func NewEvaluationHandler(evaluationService *service.EvaluationService, resultService *service.ResultService) *EvaluationHandler {
	return &EvaluationHandler{
		evaluationService: evaluationService,
		resultService:     resultService,
	}
}

// ListByModule godoc
// GET /api/v1/admin/modules/:module_id/evaluations
func (h *EvaluationHandler) ListByModule(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("module_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	evaluations, err := h.evaluationService.ListByModule(c.Request.Context(), moduleID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"evaluations": evaluations})
}

// Get godoc
// GET /api/v1/admin/evaluations/:evaluation_id
func (h *EvaluationHandler) Get(c *gin.Context) {
	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	evaluation, err := h.evaluationService.GetByID(c.Request.Context(), evaluationID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"evaluation": evaluation})
}

// Create godoc
// POST /api/v1/admin/modules/:module_id/evaluations
// Creates an inactive evaluation. A lesson quiz must name its lesson; a
// module final quiz must not.
func (h *EvaluationHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	moduleID, err := uuid.Parse(c.Param("module_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateEvaluationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	evaluation := &model.Evaluation{
		ModuleID:         moduleID,
		LessonID:         req.LessonID,
		Title:            req.Title,
		Description:      req.Description,
		EvaluationType:   model.EvaluationType(req.EvaluationType),
		PassingScore:     req.PassingScore,
		TimeLimitMinutes: req.TimeLimitMinutes,
		CreatedBy:        claims.UserID,
	}
	if err := h.evaluationService.Create(c.Request.Context(), evaluation); err != nil {
		if errors.Is(err, service.ErrLessonRequired) || errors.Is(err, service.ErrLessonNotAllowed) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"evaluation": evaluation})
}

// Update godoc
// PUT /api/v1/admin/evaluations/:evaluation_id
func (h *EvaluationHandler) Update(c *gin.Context) {
	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateEvaluationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	evaluation, err := h.evaluationService.GetByID(c.Request.Context(), evaluationID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if req.Title != "" {
		evaluation.Title = req.Title
	}
	if req.Description != "" {
		evaluation.Description = req.Description
	}
	if req.PassingScore != nil {
		evaluation.PassingScore = *req.PassingScore
	}
	if req.TimeLimitMinutes != nil {
		evaluation.TimeLimitMinutes = req.TimeLimitMinutes
	}

	if err := h.evaluationService.Update(c.Request.Context(), evaluation); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"evaluation": evaluation})
}

// Activate godoc
// POST /api/v1/admin/evaluations/:evaluation_id/activate
// Publishes the evaluation and warms its Redis payload. Rejected when
// the question set is empty or worth zero points.
func (h *EvaluationHandler) Activate(c *gin.Context) {
	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.evaluationService.Activate(c.Request.Context(), evaluationID); err != nil {
		if errors.Is(err, service.ErrNoQuestions) {
			response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
			return
		}
		if errors.Is(err, service.ErrEvaluationNoPoints) {
			response.Fail(c, http.StatusConflict, response.ErrEvaluationNotGradable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Deactivate godoc
// POST /api/v1/admin/evaluations/:evaluation_id/deactivate
func (h *EvaluationHandler) Deactivate(c *gin.Context) {
	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.evaluationService.Deactivate(c.Request.Context(), evaluationID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Delete godoc
// DELETE /api/v1/admin/evaluations/:evaluation_id
// Removes an inactive evaluation. Active ones must be deactivated first.
func (h *EvaluationHandler) Delete(c *gin.Context) {
	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.evaluationService.Delete(c.Request.Context(), evaluationID); err != nil {
		if errors.Is(err, service.ErrEvaluationNotActive) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ListResults godoc
// GET /api/v1/admin/evaluations/:evaluation_id/results
// Returns the evaluation's results with learner identity and summary
// statistics, newest first.
func (h *EvaluationHandler) ListResults(c *gin.Context) {
	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	results, stats, pagination, err := h.resultService.ListByEvaluation(c.Request.Context(), evaluationID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{
		"results": results,
		"stats":   stats,
	}, pagination)
}
