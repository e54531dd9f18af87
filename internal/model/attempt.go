package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt lifecycle states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
	AttemptStatusExpired    AttemptStatus = "expired"
)

// Terminal reports whether the status permits no further transitions.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptStatusSubmitted || s == AttemptStatusExpired
}

// AttemptState is the learner-facing snapshot of a running attempt,
// returned on start, resume, and page reload.
type AttemptState struct {
	EvaluationID         uuid.UUID         `json:"evaluation_id"`
	UserID               int               `json:"user_id"`
	Status               AttemptStatus     `json:"status"`
	CurrentQuestionIndex int               `json:"current_question_index"`
	Answers              map[string]string `json:"answers"`
	StartedAt            time.Time         `json:"started_at"`
	TimeRemainingSeconds *int              `json:"time_remaining_seconds,omitempty"`
}

// AttemptActionRequest applies an in-flight mutation to an attempt:
// record an answer, move the cursor, or both.
type AttemptActionRequest struct {
	QuestionID *uuid.UUID `json:"question_id" binding:"omitempty"`
	Answer     *string    `json:"answer" binding:"omitempty,max=10000"`
	GotoIndex  *int       `json:"goto_index" binding:"omitempty,min=0"`
}
