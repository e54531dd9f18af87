package model

import (
	"time"

	"github.com/google/uuid"
)

// LessonType represents the content type of a lesson.
type LessonType string

const (
	LessonTypeText  LessonType = "text"
	LessonTypeVideo LessonType = "video"
	LessonTypePDF   LessonType = "pdf"
	LessonTypeAudio LessonType = "audio"
	LessonTypeImage LessonType = "image"
)

// Lesson represents a single lesson inside a module. OrderNum defines
// the sequential unlock chain: lesson n is reachable once lesson n-1 is
// completed.
type Lesson struct {
	ID              uuid.UUID  `json:"id"`
	ModuleID        uuid.UUID  `json:"module_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Content         string     `json:"content,omitempty"`
	LessonType      LessonType `json:"lesson_type"`
	ContentURL      string     `json:"content_url,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	OrderNum        int        `json:"order_num"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateLessonRequest is the payload for adding a lesson to a module.
type CreateLessonRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	Description     string `json:"description" binding:"omitempty,max=2000"`
	Content         string `json:"content" binding:"omitempty"`
	LessonType      string `json:"lesson_type" binding:"required,oneof=text video pdf audio image"`
	ContentURL      string `json:"content_url" binding:"omitempty,url,max=2048"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=600"`
	OrderNum        int    `json:"order_num" binding:"required,min=1"`
}

// UpdateLessonRequest is the payload for updating an existing lesson.
type UpdateLessonRequest struct {
	Title           string `json:"title" binding:"omitempty,min=3,max=255"`
	Description     string `json:"description" binding:"omitempty,max=2000"`
	Content         string `json:"content" binding:"omitempty"`
	LessonType      string `json:"lesson_type" binding:"omitempty,oneof=text video pdf audio image"`
	ContentURL      string `json:"content_url" binding:"omitempty,url,max=2048"`
	DurationMinutes *int   `json:"duration_minutes" binding:"omitempty,min=1,max=600"`
	OrderNum        *int   `json:"order_num" binding:"omitempty,min=1"`
}
