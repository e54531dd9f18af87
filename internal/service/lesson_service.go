package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/repository"
)

// LessonService handles lesson authoring logic. Creating or deleting a
// lesson keeps the parent module's lesson count in sync.
type LessonService struct {
	lessonRepo *repository.LessonRepository
	moduleRepo *repository.ModuleRepository
	log        zerolog.Logger
}

// NewLessonService creates a new LessonService.
func NewLessonService(
	lessonRepo *repository.LessonRepository,
	moduleRepo *repository.ModuleRepository,
	log zerolog.Logger,
) *LessonService {
	return &LessonService{
		lessonRepo: lessonRepo,
		moduleRepo: moduleRepo,
		log:        log.With().Str("component", "lesson_service").Logger(),
	}
}

// GetByID retrieves a lesson by its UUID.
func (s *LessonService) GetByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	return s.lessonRepo.GetByID(ctx, id)
}

// Create inserts a new lesson and resyncs the module's lesson count.
func (s *LessonService) Create(ctx context.Context, l *model.Lesson) error {
	if err := s.lessonRepo.Create(ctx, l); err != nil {
		return err
	}
	if err := s.moduleRepo.SyncTotalLessons(ctx, l.ModuleID); err != nil {
		s.log.Warn().Err(err).Str("module_id", l.ModuleID.String()).Msg("Failed to sync lesson count")
	}
	return nil
}

// Update modifies an existing lesson.
func (s *LessonService) Update(ctx context.Context, l *model.Lesson) error {
	return s.lessonRepo.Update(ctx, l)
}

// Delete removes a lesson and resyncs the module's lesson count.
func (s *LessonService) Delete(ctx context.Context, id uuid.UUID) error {
	l, err := s.lessonRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.lessonRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.moduleRepo.SyncTotalLessons(ctx, l.ModuleID); err != nil {
		s.log.Warn().Err(err).Str("module_id", l.ModuleID.String()).Msg("Failed to sync lesson count")
	}
	return nil
}
