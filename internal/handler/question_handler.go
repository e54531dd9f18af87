package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/response"
	"github.com/traindesk/traindesk-backend/internal/service"
	"github.com/traindesk/traindesk-backend/internal/validator"
)

// QuestionHandler handles the staff question authoring surface.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// List godoc
// GET /api/v1/admin/evaluations/:evaluation_id/questions
// Returns the question set with correct answers. Staff only.
func (h *QuestionHandler) List(c *gin.Context) {
	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.questionService.ListByEvaluation(c.Request.Context(), evaluationID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Create godoc
// POST /api/v1/admin/evaluations/:evaluation_id/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question := questionFromRequest(evaluationID, &req)
	if err := h.questionService.Create(c.Request.Context(), question); err != nil {
		if isAuthoringError(err) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ReplaceAll godoc
// PUT /api/v1/admin/evaluations/:evaluation_id/questions
// Replaces the evaluation's entire question set in one transaction.
func (h *QuestionHandler) ReplaceAll(c *gin.Context) {
	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions := make([]model.Question, len(req.Questions))
	for i := range req.Questions {
		questions[i] = *questionFromRequest(evaluationID, &req.Questions[i])
	}

	if err := h.questionService.ReplaceAll(c.Request.Context(), evaluationID, questions); err != nil {
		if isAuthoringError(err) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Update godoc
// PUT /api/v1/admin/evaluations/:evaluation_id/questions/:question_id
// Replaces one question in place. The full question body is required.
func (h *QuestionHandler) Update(c *gin.Context) {
	evaluationID, err := uuid.Parse(c.Param("evaluation_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question := questionFromRequest(evaluationID, &req)
	question.ID = questionID

	if err := h.questionService.Update(c.Request.Context(), question); err != nil {
		if isAuthoringError(err) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// Delete godoc
// DELETE /api/v1/admin/evaluations/:evaluation_id/questions/:question_id
func (h *QuestionHandler) Delete(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), questionID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// isAuthoringError reports whether the error is a question
// configuration problem the client can correct.
func isAuthoringError(err error) bool {
	return errors.Is(err, service.ErrQuestionNotGradable) ||
		errors.Is(err, service.ErrQuestionOptionsRequired) ||
		errors.Is(err, service.ErrQuestionOptionsNotAllowed) ||
		errors.Is(err, service.ErrQuestionOrderDuplicate)
}

func questionFromRequest(evaluationID uuid.UUID, req *model.AddQuestionRequest) *model.Question {
	return &model.Question{
		EvaluationID:  evaluationID,
		QuestionText:  req.QuestionText,
		QuestionType:  model.QuestionType(req.QuestionType),
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Points:        req.Points,
		OrderNum:      req.OrderNum,
	}
}
