package handler

import (
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

// ModuleHandler handles the staff module and lesson authoring surface.
type ModuleHandler struct {
	moduleService *service.ModuleService
	lessonService *service.LessonService
}

// NewModuleHandler creates a new ModuleHandler.
func NewModuleHandler(moduleService *service.ModuleService, lessonService *service.LessonService) *ModuleHandler {
	return &ModuleHandler{
		moduleService: moduleService,
		lessonService: lessonService,
	}
}

// List godoc
// GET /api/v1/admin/modules
func (h *ModuleHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	modules, pagination, err := h.moduleService.List(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"modules": modules}, pagination)
}

// Get godoc
// GET /api/v1/admin/modules/:module_id
func (h *ModuleHandler) Get(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("module_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	module, err := h.moduleService.GetByID(c.Request.Context(), moduleID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	lessons, err := h.moduleService.Lessons(c.Request.Context(), moduleID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"module":  module,
		"lessons": lessons,
	})
}

// Create godoc
// POST /api/v1/admin/modules
func (h *ModuleHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateModuleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	module := &model.Module{
		Title:           req.Title,
		Description:     req.Description,
		Level:           model.ModuleLevel(req.Level),
		DurationMinutes: req.DurationMinutes,
		CreatedBy:       claims.UserID,
	}
	if err := h.moduleService.Create(c.Request.Context(), module); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"module": module})
}

// Update godoc
// PUT /api/v1/admin/modules/:module_id
func (h *ModuleHandler) Update(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("module_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateModuleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	module, err := h.moduleService.GetByID(c.Request.Context(), moduleID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if req.Title != "" {
		module.Title = req.Title
	}
	if req.Description != "" {
		module.Description = req.Description
	}
	if req.Level != "" {
		module.Level = model.ModuleLevel(req.Level)
	}
	if req.DurationMinutes != nil {
		module.DurationMinutes = *req.DurationMinutes
	}
	if req.IsActive != nil {
		module.IsActive = *req.IsActive
	}

	if err := h.moduleService.Update(c.Request.Context(), module); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"module": module})
}

// Delete godoc
// DELETE /api/v1/admin/modules/:module_id
func (h *ModuleHandler) Delete(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("module_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.moduleService.Delete(c.Request.Context(), moduleID); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrDependencyExists)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// CreateLesson godoc
// POST /api/v1/admin/modules/:module_id/lessons
func (h *ModuleHandler) CreateLesson(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("module_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateLessonRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lesson := &model.Lesson{
		ModuleID:        moduleID,
		Title:           req.Title,
		Description:     req.Description,
		Content:         req.Content,
		LessonType:      model.LessonType(req.LessonType),
		ContentURL:      req.ContentURL,
		DurationMinutes: req.DurationMinutes,
		OrderNum:        req.OrderNum,
	}
	if err := h.lessonService.Create(c.Request.Context(), lesson); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"lesson": lesson})
}

// UpdateLesson godoc
// PUT /api/v1/admin/lessons/:lesson_id
func (h *ModuleHandler) UpdateLesson(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("lesson_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateLessonRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lesson, err := h.lessonService.GetByID(c.Request.Context(), lessonID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if req.Title != "" {
		lesson.Title = req.Title
	}
	if req.Description != "" {
		lesson.Description = req.Description
	}
	if req.Content != "" {
		lesson.Content = req.Content
	}
	if req.LessonType != "" {
		lesson.LessonType = model.LessonType(req.LessonType)
	}
	if req.ContentURL != "" {
		lesson.ContentURL = req.ContentURL
	}
	if req.DurationMinutes != nil {
		lesson.DurationMinutes = *req.DurationMinutes
	}
	if req.OrderNum != nil {
		lesson.OrderNum = *req.OrderNum
	}

	if err := h.lessonService.Update(c.Request.Context(), lesson); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"lesson": lesson})
}

// DeleteLesson godoc
// DELETE /api/v1/admin/lessons/:lesson_id
func (h *ModuleHandler) DeleteLesson(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("lesson_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.lessonService.Delete(c.Request.Context(), lessonID); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrDependencyExists)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
