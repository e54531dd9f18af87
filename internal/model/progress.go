package model

import (
	"time"

	"github.com/google/uuid"
)

// UserProgress is one progress row keyed by (user, module, lesson).
// A row with LessonID nil is the module-level row: it stores the
// final-quiz gate and accumulated time, never the aggregate percentage,
// which is always recomputed from the lesson rows.
type UserProgress struct {
	ID                   int        `json:"id"`
	UserID               int        `json:"user_id"`
	ModuleID             uuid.UUID  `json:"module_id"`
	LessonID             *uuid.UUID `json:"lesson_id,omitempty"`
	CompletionPercentage int        `json:"completion_percentage"`
	IsCompleted          bool       `json:"is_completed"`
	FinalQuizPassed      bool       `json:"final_quiz_passed,omitempty"`
	TimeSpentMinutes     int        `json:"time_spent_minutes"`
	LastAccessedAt       time.Time  `json:"last_accessed_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

// RecordProgressRequest is the payload for a content-consumption report.
type RecordProgressRequest struct {
	CompletionPercentage int `json:"completion_percentage" binding:"min=0,max=100"`
	TimeSpentMinutes     int `json:"time_spent_minutes" binding:"omitempty,min=0,max=600"`
}

// LessonProgressView is a lesson decorated with the learner's progress
// and its unlock state.
type LessonProgressView struct {
	Lesson
	CompletionPercentage int  `json:"completion_percentage"`
	IsCompleted          bool `json:"is_completed"`
	IsUnlocked           bool `json:"is_unlocked"`
}

// ModuleProgressView is the learner's aggregate view of one module:
// the lesson chain with unlock flags, the recomputed mean, and the
// unlock frontier.
type ModuleProgressView struct {
	ModuleID             uuid.UUID            `json:"module_id"`
	CompletionPercentage int                  `json:"completion_percentage"`
	IsCompleted          bool                 `json:"is_completed"`
	FinalQuizPassed      bool                 `json:"final_quiz_passed"`
	TimeSpentMinutes     int                  `json:"time_spent_minutes"`
	Lessons              []LessonProgressView `json:"lessons"`
	NextLessonID         *uuid.UUID           `json:"next_lesson_id,omitempty"`
}
