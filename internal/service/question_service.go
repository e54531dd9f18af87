package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/repository"
)

// Authoring errors. Questions carry options exactly when their type has
// a fixed choice set, and auto-gradable types need a correct answer to
// compare against.
var (
	ErrQuestionNotGradable       = errors.New("multiple_choice and true_false questions require a correct answer")
	ErrQuestionOptionsRequired   = errors.New("multiple_choice and true_false questions require options")
	ErrQuestionOptionsNotAllowed = errors.New("short_answer and essay questions cannot carry options")
	ErrQuestionOrderDuplicate    = errors.New("question order numbers must be unique within an evaluation")
)

// QuestionService handles question authoring logic.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	evalRepo     *repository.EvaluationRepository
	evalService  *EvaluationService
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	questionRepo *repository.QuestionRepository,
	evalRepo *repository.EvaluationRepository,
	evalService *EvaluationService,
	log zerolog.Logger,
) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		evalRepo:     evalRepo,
		evalService:  evalService,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// ListByEvaluation retrieves all questions for an evaluation, correct
// answers included. Admin surface only.
func (s *QuestionService) ListByEvaluation(ctx context.Context, evaluationID uuid.UUID) ([]model.Question, error) {
	questions, err := s.questionRepo.ListByEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// Create adds a question to an evaluation and resyncs its question
// count and cache.
func (s *QuestionService) Create(ctx context.Context, q *model.Question) error {
	if err := validateQuestion(q); err != nil {
		return err
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return err
	}
	if err := s.evalRepo.SyncTotalQuestions(ctx, q.EvaluationID); err != nil {
		return fmt.Errorf("sync question count: %w", err)
	}
	return s.refreshCacheIfActive(ctx, q.EvaluationID)
}

// Update modifies an existing question.
func (s *QuestionService) Update(ctx context.Context, q *model.Question) error {
	if err := validateQuestion(q); err != nil {
		return err
	}
	if err := s.questionRepo.Update(ctx, q); err != nil {
		return err
	}
	return s.refreshCacheIfActive(ctx, q.EvaluationID)
}

// ReplaceAll replaces an evaluation's entire question set.
func (s *QuestionService) ReplaceAll(ctx context.Context, evaluationID uuid.UUID, questions []model.Question) error {
	for i := range questions {
		questions[i].EvaluationID = evaluationID
	}
	if err := validateQuestionSet(questions); err != nil {
		return err
	}
	if err := s.questionRepo.ReplaceAll(ctx, evaluationID, questions); err != nil {
		return err
	}
	return s.refreshCacheIfActive(ctx, evaluationID)
}

// Delete removes a question and resyncs the evaluation's question count.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.evalRepo.SyncTotalQuestions(ctx, q.EvaluationID); err != nil {
		return fmt.Errorf("sync question count: %w", err)
	}
	return s.refreshCacheIfActive(ctx, q.EvaluationID)
}

// refreshCacheIfActive re-warms the evaluation cache after authoring
// changes so live learners never grade against a stale question set.
func (s *QuestionService) refreshCacheIfActive(ctx context.Context, evaluationID uuid.UUID) error {
	e, err := s.evalRepo.GetByID(ctx, evaluationID)
	if err != nil {
		return err
	}
	if !e.IsActive {
		return nil
	}
	if err := s.evalService.WarmEvaluationCache(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("evaluation_id", evaluationID.String()).Msg("Failed to refresh cache after question change")
	}
	return nil
}

func validateQuestion(q *model.Question) error {
	if q.QuestionType.AutoGradable() {
		if q.CorrectAnswer == "" {
			return ErrQuestionNotGradable
		}
		if len(q.Options) == 0 {
			return ErrQuestionOptionsRequired
		}
		return nil
	}
	if len(q.Options) > 0 {
		return ErrQuestionOptionsNotAllowed
	}
	return nil
}

// validateQuestionSet checks each question and rejects duplicate order
// numbers. The unique index on (evaluation_id, order_num) backs this at
// the database, but a whole-set replace can report it before any write.
func validateQuestionSet(questions []model.Question) error {
	seen := make(map[int]struct{}, len(questions))
	for i := range questions {
		if err := validateQuestion(&questions[i]); err != nil {
			return err
		}
		if _, dup := seen[questions[i].OrderNum]; dup {
			return ErrQuestionOrderDuplicate
		}
		seen[questions[i].OrderNum] = struct{}{}
	}
	return nil
}
