package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/repository"
	"github.com/traindesk/traindesk-backend/internal/response"
)

// ResultService handles result retrieval for learners and staff.
type ResultService struct {
	resultRepo *repository.ResultRepository
	log        zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(resultRepo *repository.ResultRepository, log zerolog.Logger) *ResultService {
	return &ResultService{
		resultRepo: resultRepo,
		log:        log.With().Str("component", "result_service").Logger(),
	}
}

// GetLatestForUser retrieves a learner's most recent result for an
// evaluation.
func (s *ResultService) GetLatestForUser(ctx context.Context, userID int, evaluationID uuid.UUID) (*model.Result, error) {
	return s.resultRepo.GetLatestForUser(ctx, userID, evaluationID)
}

// HasPassed reports whether the learner has any passing result for an
// evaluation.
func (s *ResultService) HasPassed(ctx context.Context, userID int, evaluationID uuid.UUID) (bool, error) {
	return s.resultRepo.HasPassed(ctx, userID, evaluationID)
}

// ListForUser retrieves all of a learner's results, newest first.
func (s *ResultService) ListForUser(ctx context.Context, userID int) ([]model.Result, error) {
	results, err := s.resultRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.Result{}
	}
	return results, nil
}

// ListByEvaluation retrieves an evaluation's results with learner
// identity and summary statistics for the staff surface.
func (s *ResultService) ListByEvaluation(ctx context.Context, evaluationID uuid.UUID, page, perPage int) ([]repository.ResultWithLearner, *repository.EvaluationStats, *response.Pagination, error) {
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

	results, total, err := s.resultRepo.ListByEvaluationPaginated(ctx, evaluationID, limit, offset)
	if err != nil {
		return nil, nil, nil, err
	}
	if results == nil {
		results = []repository.ResultWithLearner{}
	}

	stats, err := s.resultRepo.StatsByEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, nil, nil, err
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return results, stats, pagination, nil
}
