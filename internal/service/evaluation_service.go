package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/config"
	"github.com/traindesk/traindesk-backend/internal/grading"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/repository"
)

// Domain Errors
var (
	ErrEvaluationNotActive = errors.New("evaluation is not active")
	ErrNoQuestions         = errors.New("evaluation has no questions, cannot activate/start")
	ErrEvaluationNoPoints  = errors.New("evaluation has zero total points, cannot activate")
	ErrLessonRequired      = errors.New("a lesson quiz must be attached to a lesson")
	ErrLessonNotAllowed    = errors.New("a module final quiz cannot be attached to a lesson")
)

// EvaluationService handles evaluation business logic and Redis caching.
type EvaluationService struct {
	evalRepo     *repository.EvaluationRepository
	questionRepo *repository.QuestionRepository
	lessonRepo   *repository.LessonRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewEvaluationService creates a new EvaluationService.
func NewEvaluationService(
	evalRepo *repository.EvaluationRepository,
	questionRepo *repository.QuestionRepository,
	lessonRepo *repository.LessonRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *EvaluationService {
	return &EvaluationService{
		evalRepo:     evalRepo,
		questionRepo: questionRepo,
		lessonRepo:   lessonRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "evaluation_service").Logger(),
	}
}

// GetByID retrieves an evaluation by its UUID.
func (s *EvaluationService) GetByID(ctx context.Context, id uuid.UUID) (*model.Evaluation, error) {
	return s.evalRepo.GetByID(ctx, id)
}

// ListByModule retrieves all evaluations attached to a module.
func (s *EvaluationService) ListByModule(ctx context.Context, moduleID uuid.UUID) ([]model.Evaluation, error) {
	evaluations, err := s.evalRepo.ListByModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if evaluations == nil {
		evaluations = []model.Evaluation{}
	}
	return evaluations, nil
}

// GetActiveByLesson retrieves the active quiz attached to a lesson, if any.
func (s *EvaluationService) GetActiveByLesson(ctx context.Context, lessonID uuid.UUID) (*model.Evaluation, error) {
	return s.evalRepo.GetActiveByLesson(ctx, lessonID)
}

// Create inserts a new evaluation as inactive. A lesson quiz must name
// its lesson, and the lesson must belong to the module; a module final
// quiz must not name one.
func (s *EvaluationService) Create(ctx context.Context, e *model.Evaluation) error {
	switch e.EvaluationType {
	case model.EvaluationTypeLessonQuiz:
		if e.LessonID == nil {
			return ErrLessonRequired
		}
		lesson, err := s.lessonRepo.GetByID(ctx, *e.LessonID)
		if err != nil {
			return fmt.Errorf("get lesson: %w", err)
		}
		if lesson.ModuleID != e.ModuleID {
			return errors.New("lesson does not belong to this module")
		}
	case model.EvaluationTypeModuleFinalQuiz:
		if e.LessonID != nil {
			return ErrLessonNotAllowed
		}
	}
	return s.evalRepo.Create(ctx, e)
}

// Update modifies an existing evaluation and refreshes its cache when
// it is live.
func (s *EvaluationService) Update(ctx context.Context, e *model.Evaluation) error {
	if err := s.evalRepo.Update(ctx, e); err != nil {
		return err
	}
	if e.IsActive {
		if err := s.WarmEvaluationCache(ctx, e); err != nil {
			s.log.Warn().Err(err).Str("evaluation_id", e.ID.String()).Msg("Failed to refresh cache after update")
		}
	}
	return nil
}

// Activate publishes an evaluation and caches its payload + answer set
// in Redis. An evaluation with no questions or zero total points is a
// configuration error and stays inactive.
func (s *EvaluationService) Activate(ctx context.Context, id uuid.UUID) error {
	e, err := s.evalRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get evaluation: %w", err)
	}

	questions, err := s.questionRepo.ListByEvaluation(ctx, id)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	if grading.TotalPoints(questions) == 0 {
		return ErrEvaluationNoPoints
	}

	if err := s.warmCache(ctx, e, questions); err != nil {
		return err
	}

	if err := s.evalRepo.SetActive(ctx, id, true); err != nil {
		return fmt.Errorf("set active: %w", err)
	}

	s.log.Info().Str("evaluation_id", id.String()).Msg("Evaluation activated")
	return nil
}

// Deactivate unpublishes an evaluation and drops its cache entries.
func (s *EvaluationService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.evalRepo.SetActive(ctx, id, false); err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if err := s.rdb.Del(ctx,
		config.CacheKey.EvaluationPayloadKey(id.String()),
		config.CacheKey.EvaluationAnswerKey(id.String()),
	).Err(); err != nil {
		s.log.Warn().Err(err).Str("evaluation_id", id.String()).Msg("Failed to drop cache entries")
	}
	s.log.Info().Str("evaluation_id", id.String()).Msg("Evaluation deactivated")
	return nil
}

// Delete removes an inactive evaluation.
func (s *EvaluationService) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := s.evalRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e.IsActive {
		return ErrEvaluationNotActive
	}
	return s.evalRepo.Delete(ctx, id)
}

// WarmEvaluationCache loads an evaluation's payload and question set
// from PostgreSQL into Redis. Used by Activate, Update, and
// PrewarmAllCaches.
func (s *EvaluationService) WarmEvaluationCache(ctx context.Context, e *model.Evaluation) error {
	questions, err := s.questionRepo.ListByEvaluation(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	return s.warmCache(ctx, e, questions)
}

func (s *EvaluationService) warmCache(ctx context.Context, e *model.Evaluation, questions []model.Question) error {
	// Learner-facing payload, correct answers stripped.
	learnerQuestions := make([]model.QuestionForLearner, len(questions))
	for i, q := range questions {
		learnerQuestions[i] = model.QuestionForLearner{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Options:      q.Options,
			Points:       q.Points,
			OrderNum:     q.OrderNum,
		}
	}

	payload := model.EvaluationPayload{
		EvaluationID:     e.ID,
		Title:            e.Title,
		EvaluationType:   e.EvaluationType,
		PassingScore:     e.PassingScore,
		TimeLimitMinutes: e.TimeLimitMinutes,
		Questions:        learnerQuestions,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	// Full question set with correct answers for RAM grading on submit.
	answerJSON, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.EvaluationPayloadKey(e.ID.String()), payloadJSON, 0)
	pipe.Set(ctx, config.CacheKey.EvaluationAnswerKey(e.ID.String()), answerJSON, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("evaluation_id", e.ID.String()).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads every active evaluation into Redis on
// application startup so the first learner never takes a lazy-load hit.
func (s *EvaluationService) PrewarmAllCaches(ctx context.Context) error {
	evaluations, err := s.evalRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active evaluations: %w", err)
	}

	if len(evaluations) == 0 {
		s.log.Info().Msg("No active evaluations to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(evaluations)).Msg("Prewarming active evaluations...")

	warmed := 0
	for i := range evaluations {
		if err := s.WarmEvaluationCache(ctx, &evaluations[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("evaluation_id", evaluations[i].ID.String()).
				Msg("Failed to warm evaluation, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(evaluations)).
		Msg("Prewarming complete")
	return nil
}

// GetPayload retrieves the cached learner payload, falling back to
// PostgreSQL and re-warming the cache on a miss.
func (s *EvaluationService) GetPayload(ctx context.Context, evaluationID uuid.UUID) (*model.EvaluationPayload, error) {
	key := config.CacheKey.EvaluationPayloadKey(evaluationID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var payload model.EvaluationPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &payload, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get payload: %w", err)
	}

	// Cache miss. Rebuild from the database and self-heal.
	e, err := s.evalRepo.GetByID(ctx, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	if !e.IsActive {
		return nil, ErrEvaluationNotActive
	}
	if err := s.WarmEvaluationCache(ctx, e); err != nil {
		return nil, err
	}
	return s.GetPayload(ctx, evaluationID)
}

// GetGradableQuestions retrieves the full question set with correct
// answers, preferring the Redis copy and falling back to PostgreSQL.
func (s *EvaluationService) GetGradableQuestions(ctx context.Context, evaluationID uuid.UUID) ([]model.Question, error) {
	key := config.CacheKey.EvaluationAnswerKey(evaluationID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var questions []model.Question
		if err := json.Unmarshal(data, &questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions: %w", err)
		}
		return questions, nil
	}
	if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("evaluation_id", evaluationID.String()).Msg("Redis unavailable, grading from database")
	}

	questions, err := s.questionRepo.ListByEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return questions, nil
}
