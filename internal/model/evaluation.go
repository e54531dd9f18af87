package model

import (
	"time"

	"github.com/google/uuid"
)

// EvaluationType distinguishes a low-stakes lesson quiz from the
// high-stakes module final quiz.
type EvaluationType string

const (
	EvaluationTypeLessonQuiz      EvaluationType = "lesson_quiz"
	EvaluationTypeModuleFinalQuiz EvaluationType = "module_final_quiz"
)

// Evaluation represents a quiz or exam. A lesson quiz belongs to exactly
// one lesson; a module final quiz belongs to exactly one module and has
// no lesson.
type Evaluation struct {
	ID               uuid.UUID      `json:"id"`
	ModuleID         uuid.UUID      `json:"module_id"`
	LessonID         *uuid.UUID     `json:"lesson_id,omitempty"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	EvaluationType   EvaluationType `json:"evaluation_type"`
	TotalQuestions   int            `json:"total_questions"`
	PassingScore     int            `json:"passing_score"` // Percentage threshold, 0-100.
	TimeLimitMinutes *int           `json:"time_limit_minutes,omitempty"`
	IsActive         bool           `json:"is_active"`
	CreatedBy        int            `json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Timed reports whether the evaluation has a countdown.
func (e *Evaluation) Timed() bool {
	return e.TimeLimitMinutes != nil && *e.TimeLimitMinutes > 0
}

// CreateEvaluationRequest is the payload for creating a new evaluation.
type CreateEvaluationRequest struct {
	LessonID         *uuid.UUID `json:"lesson_id" binding:"omitempty"`
	Title            string     `json:"title" binding:"required,min=3,max=255"`
	Description      string     `json:"description" binding:"omitempty,max=2000"`
	EvaluationType   string     `json:"evaluation_type" binding:"required,oneof=lesson_quiz module_final_quiz"`
	PassingScore     int        `json:"passing_score" binding:"required,min=0,max=100"`
	TimeLimitMinutes *int       `json:"time_limit_minutes" binding:"omitempty,min=1,max=480"`
}

// UpdateEvaluationRequest is the payload for updating an existing evaluation.
type UpdateEvaluationRequest struct {
	Title            string `json:"title" binding:"omitempty,min=3,max=255"`
	Description      string `json:"description" binding:"omitempty,max=2000"`
	PassingScore     *int   `json:"passing_score" binding:"omitempty,min=0,max=100"`
	TimeLimitMinutes *int   `json:"time_limit_minutes" binding:"omitempty,min=1,max=480"`
}

// EvaluationPayload is the Redis-cached payload sent to learners taking
// an evaluation (no correct answers).
type EvaluationPayload struct {
	EvaluationID     uuid.UUID            `json:"evaluation_id"`
	Title            string               `json:"title"`
	EvaluationType   EvaluationType       `json:"evaluation_type"`
	PassingScore     int                  `json:"passing_score"`
	TimeLimitMinutes *int                 `json:"time_limit_minutes,omitempty"`
	Questions        []QuestionForLearner `json:"questions"`
}
