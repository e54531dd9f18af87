package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/middleware"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/response"
	"github.com/traindesk/traindesk-backend/internal/service"
	"github.com/traindesk/traindesk-backend/internal/validator"
)

// LearnerPortalHandler handles learner-facing endpoints: the module
// catalog, lesson access behind the unlock chain, progress reports, and
// result history.
type LearnerPortalHandler struct {
	moduleService     *service.ModuleService
	lessonService     *service.LessonService
	evaluationService *service.EvaluationService
	progressService   *service.ProgressService
	resultService     *service.ResultService
}

// NewLearnerPortalHandler creates a new LearnerPortalHandler.
func NewLearnerPortalHandler(
	moduleService *service.ModuleService,
	lessonService *service.LessonService,
	evaluationService *service.EvaluationService,
	progressService *service.ProgressService,
	resultService *service.ResultService,
) *LearnerPortalHandler {
	return &LearnerPortalHandler{
		moduleService:     moduleService,
		lessonService:     lessonService,
		evaluationService: evaluationService,
		progressService:   progressService,
		resultService:     resultService,
	}
}

// ListModules godoc
// GET /api/v1/learner/modules
// Returns the active module catalog.
func (h *LearnerPortalHandler) ListModules(c *gin.Context) {
	modules, err := h.moduleService.ListActive(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"modules": modules})
}

// GetModule godoc
// GET /api/v1/learner/modules/:module_id
// Returns one active module with the learner's progress overview: the
// lesson chain with unlock flags, the recomputed completion mean, and
// the next lesson on the frontier.
func (h *LearnerPortalHandler) GetModule(c *gin.Context) {
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

	module, err := h.moduleService.GetActiveByID(c.Request.Context(), moduleID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	overview, err := h.progressService.Overview(c.Request.Context(), claims.UserID, moduleID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"module":   module,
		"progress": overview,
	})
}

// GetLesson godoc
// GET /api/v1/learner/lessons/:lesson_id
// Returns lesson content. Locked lessons are rejected until the
// predecessor is completed.
func (h *LearnerPortalHandler) GetLesson(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lessonID, err := uuid.Parse(c.Param("lesson_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	lesson, err := h.lessonService.GetByID(c.Request.Context(), lessonID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	unlocked, err := h.progressService.IsLessonUnlocked(c.Request.Context(), claims.UserID, lesson)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if !unlocked {
		response.Fail(c, http.StatusForbidden, response.ErrLessonLocked)
		return
	}

	// Surface the attached quiz, if one is live, with the learner's
	// pass state so the client can render retakes accordingly.
	quizPassed := false
	quiz, err := h.evaluationService.GetActiveByLesson(c.Request.Context(), lessonID)
	if err != nil {
		quiz = nil
	} else if quiz != nil {
		quizPassed, _ = h.resultService.HasPassed(c.Request.Context(), claims.UserID, quiz.ID)
	}

	response.Success(c, http.StatusOK, gin.H{
		"lesson":      lesson,
		"quiz":        quiz,
		"quiz_passed": quizPassed,
	})
}

// RecordProgress godoc
// POST /api/v1/learner/lessons/:lesson_id/progress
// Applies a content-consumption report. Progress is monotonic: a lower
// or stale report leaves the stored value untouched.
func (h *LearnerPortalHandler) RecordProgress(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lessonID, err := uuid.Parse(c.Param("lesson_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.RecordProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	progress, err := h.progressService.Record(c.Request.Context(), claims.UserID, lessonID, &req)
	if err != nil {
		if errors.Is(err, service.ErrLessonLocked) {
			response.Fail(c, http.StatusForbidden, response.ErrLessonLocked)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"progress": progress})
}

// GetModuleProgress godoc
// GET /api/v1/learner/modules/:module_id/progress
// Returns the learner's progress overview for one module.
func (h *LearnerPortalHandler) GetModuleProgress(c *gin.Context) {
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

	overview, err := h.progressService.Overview(c.Request.Context(), claims.UserID, moduleID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, overview)
}

// ListMyResults godoc
// GET /api/v1/learner/results
// Returns the learner's evaluation results, newest first.
func (h *LearnerPortalHandler) ListMyResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.resultService.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}
