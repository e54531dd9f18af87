package model

import (
	"time"

	"github.com/google/uuid"
)

// ModuleLevel represents the difficulty level of a training module.
type ModuleLevel string

const (
	ModuleLevelBeginner     ModuleLevel = "beginner"
	ModuleLevelIntermediate ModuleLevel = "intermediate"
	ModuleLevelAdvanced     ModuleLevel = "advanced"
)

// Module represents a training module composed of ordered lessons.
type Module struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Level           ModuleLevel `json:"level"`
	DurationMinutes int         `json:"duration_minutes"`
	TotalLessons    int         `json:"total_lessons"`
	IsActive        bool        `json:"is_active"`
	CreatedBy       int         `json:"created_by"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// CreateModuleRequest is the payload for creating a new module.
type CreateModuleRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	Description     string `json:"description" binding:"omitempty,max=2000"`
	Level           string `json:"level" binding:"required,oneof=beginner intermediate advanced"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=6000"`
}

// UpdateModuleRequest is the payload for updating an existing module.
type UpdateModuleRequest struct {
	Title           string `json:"title" binding:"omitempty,min=3,max=255"`
	Description     string `json:"description" binding:"omitempty,max=2000"`
	Level           string `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	DurationMinutes *int   `json:"duration_minutes" binding:"omitempty,min=1,max=6000"`
	IsActive        *bool  `json:"is_active" binding:"omitempty"`
}
