package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/repository"
	"github.com/traindesk/traindesk-backend/internal/response"
)

// ErrModuleNotActive is returned when a learner requests a module that
// has not been published.
var ErrModuleNotActive = errors.New("module is not active")

// ModuleService handles training module business logic.
type ModuleService struct {
	moduleRepo *repository.ModuleRepository
	lessonRepo *repository.LessonRepository
	log        zerolog.Logger
}

// NewModuleService creates a new ModuleService.
func NewModuleService(
	moduleRepo *repository.ModuleRepository,
	lessonRepo *repository.LessonRepository,
	log zerolog.Logger,
) *ModuleService {
	return &ModuleService{
		moduleRepo: moduleRepo,
		lessonRepo: lessonRepo,
		log:        log.With().Str("component", "module_service").Logger(),
	}
}

// GetByID retrieves a module by its UUID.
func (s *ModuleService) GetByID(ctx context.Context, id uuid.UUID) (*model.Module, error) {
	return s.moduleRepo.GetByID(ctx, id)
}

// GetActiveByID retrieves a module for the learner surface, rejecting
// unpublished ones.
func (s *ModuleService) GetActiveByID(ctx context.Context, id uuid.UUID) (*model.Module, error) {
	m, err := s.moduleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsActive {
		return nil, ErrModuleNotActive
	}
	return m, nil
}

// ListActive retrieves all active modules for the learner catalog.
func (s *ModuleService) ListActive(ctx context.Context) ([]model.Module, error) {
	modules, err := s.moduleRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if modules == nil {
		modules = []model.Module{}
	}
	return modules, nil
}

// List retrieves modules with pagination for the admin surface.
func (s *ModuleService) List(ctx context.Context, page, perPage int) ([]model.Module, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	modules, total, err := s.moduleRepo.ListPaginated(ctx, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if modules == nil {
		modules = []model.Module{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return modules, pagination, nil
}

// Create inserts a new module.
func (s *ModuleService) Create(ctx context.Context, m *model.Module) error {
	if err := s.moduleRepo.Create(ctx, m); err != nil {
		return err
	}
	s.log.Info().Str("module_id", m.ID.String()).Str("title", m.Title).Msg("Module created")
	return nil
}

// Update modifies an existing module.
func (s *ModuleService) Update(ctx context.Context, m *model.Module) error {
	return s.moduleRepo.Update(ctx, m)
}

// Delete removes a module and everything under it.
func (s *ModuleService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.moduleRepo.Delete(ctx, id)
}

// Lessons retrieves a module's lesson chain in order.
func (s *ModuleService) Lessons(ctx context.Context, moduleID uuid.UUID) ([]model.Lesson, error) {
	lessons, err := s.lessonRepo.ListByModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if lessons == nil {
		lessons = []model.Lesson{}
	}
	return lessons, nil
}
