package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question kinds. Only
// multiple_choice and true_false are automatically gradable.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
	QuestionTypeEssay          QuestionType = "essay"
)

// AutoGradable reports whether a question type has a deterministic
// correctness test.
func (t QuestionType) AutoGradable() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalse
}

// Question represents a single evaluation question. For open-ended
// types, CorrectAnswer is a reference answer shown to the learner after
// submission, never used for automatic comparison.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	EvaluationID  uuid.UUID    `json:"evaluation_id"`
	QuestionText  string       `json:"question_text"`
	QuestionType  QuestionType `json:"question_type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Points        int          `json:"points"`
	OrderNum      int          `json:"order_num"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// QuestionForLearner is a question without the correct answer, sent to
// learners during an attempt.
type QuestionForLearner struct {
	ID           uuid.UUID    `json:"id"`
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	Options      []string     `json:"options,omitempty"`
	Points       int          `json:"points"`
	OrderNum     int          `json:"order_num"`
}

// AddQuestionRequest is the payload for adding a question to an evaluation.
type AddQuestionRequest struct {
	QuestionText  string   `json:"question_text" binding:"required,min=1,max=2000"`
	QuestionType  string   `json:"question_type" binding:"required,oneof=multiple_choice true_false short_answer essay"`
	Options       []string `json:"options" binding:"omitempty,dive,min=1,max=500"`
	CorrectAnswer string   `json:"correct_answer" binding:"omitempty,max=2000"`
	Points        int      `json:"points" binding:"min=0"`
	OrderNum      int      `json:"order_num" binding:"required,min=1"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"dive"`
}
