package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the write-once record produced when an attempt leaves
// in_progress. Voluntary submission and timer expiry produce the same
// shape; only Status differs.
type Result struct {
	ID               uuid.UUID     `json:"id"`
	EvaluationID     uuid.UUID     `json:"evaluation_id"`
	UserID           int           `json:"user_id"`
	Score            int           `json:"score"`
	TotalPoints      int           `json:"total_points"`
	Percentage       int           `json:"percentage"`
	IsPassed         bool          `json:"is_passed"`
	Status           AttemptStatus `json:"status"`
	TimeTakenMinutes int           `json:"time_taken_minutes"`
	StartedAt        time.Time     `json:"started_at"`
	CompletedAt      time.Time     `json:"completed_at"`
}

// QuestionReview pairs a graded question with the learner's answer for
// the post-submission review screen. IsCorrect is nil for open-ended
// types, which have no automatic correctness test.
type QuestionReview struct {
	QuestionID      uuid.UUID    `json:"question_id"`
	QuestionType    QuestionType `json:"question_type"`
	SubmittedAnswer string       `json:"submitted_answer,omitempty"`
	ReferenceAnswer string       `json:"reference_answer,omitempty"`
	IsCorrect       *bool        `json:"is_correct,omitempty"`
	PointsEarned    int          `json:"points_earned"`
	Points          int          `json:"points"`
}
