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
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/progress"
	"github.com/traindesk/traindesk-backend/internal/repository"
)

// ErrLessonLocked is returned when a learner reports progress on a
// lesson whose predecessor is not completed yet.
var ErrLessonLocked = errors.New("lesson is locked, complete the previous lesson first")

// ProgressService handles progress tracking and the unlock frontier.
type ProgressService struct {
	progressRepo *repository.ProgressRepository
	lessonRepo   *repository.LessonRepository
	cfg          *config.Config
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewProgressService creates a new ProgressService.
func NewProgressService(
	progressRepo *repository.ProgressRepository,
	lessonRepo *repository.LessonRepository,
	cfg *config.Config,
	rdb *redis.Client,
	log zerolog.Logger,
) *ProgressService {
	return &ProgressService{
		progressRepo: progressRepo,
		lessonRepo:   lessonRepo,
		cfg:          cfg,
		rdb:          rdb,
		log:          log.With().Str("component", "progress_service").Logger(),
	}
}

// progressJob mirrors the persist_progress_queue payload consumed by
// the progress worker.
type progressJob struct {
	UserID           int    `json:"user_id"`
	ModuleID         string `json:"module_id"`
	LessonID         string `json:"lesson_id"`
	Percentage       int    `json:"percentage"`
	TimeSpentMinutes int    `json:"time_spent_minutes"`
}

// Record applies a learner's content-consumption report to a lesson.
// The lesson must be unlocked; the stored percentage is monotonic, so a
// lower or stale report never regresses it.
func (s *ProgressService) Record(ctx context.Context, userID int, lessonID uuid.UUID, req *model.RecordProgressRequest) (*model.UserProgress, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}

	lessons, rows, err := s.loadModuleState(ctx, userID, lesson.ModuleID)
	if err != nil {
		return nil, err
	}

	if !progress.IsLessonUnlocked(*lesson, lessons, completedSet(rows)) {
		return nil, ErrLessonLocked
	}

	return s.progressRepo.UpsertLesson(ctx, userID, lesson.ModuleID, lessonID, req.CompletionPercentage, req.TimeSpentMinutes)
}

// Overview builds the learner's aggregate view of one module: every
// lesson with its unlock state, the recomputed mean, and the next
// lesson on the frontier. The module percentage is always derived from
// the lesson rows, never stored.
func (s *ProgressService) Overview(ctx context.Context, userID int, moduleID uuid.UUID) (*model.ModuleProgressView, error) {
	lessons, rows, err := s.loadModuleState(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}

	byLesson := make(map[uuid.UUID]int, len(rows))
	var moduleRow *model.UserProgress
	for i := range rows {
		if rows[i].LessonID == nil {
			moduleRow = &rows[i]
			continue
		}
		byLesson[*rows[i].LessonID] = rows[i].CompletionPercentage
	}

	completed := completedSet(rows)

	views := make([]model.LessonProgressView, len(lessons))
	for i, l := range lessons {
		views[i] = model.LessonProgressView{
			Lesson:               l,
			CompletionPercentage: byLesson[l.ID],
			IsCompleted:          completed(l.ID),
			IsUnlocked:           progress.IsLessonUnlocked(l, lessons, completed),
		}
	}

	pct := progress.ModulePercentage(lessons, byLesson)

	view := &model.ModuleProgressView{
		ModuleID:             moduleID,
		CompletionPercentage: pct,
		IsCompleted:          len(lessons) > 0 && pct >= progress.Completed,
		Lessons:              views,
	}
	if moduleRow != nil {
		view.FinalQuizPassed = moduleRow.FinalQuizPassed
		view.TimeSpentMinutes = moduleRow.TimeSpentMinutes
	}
	if next := progress.NextUnlockedLesson(lessons, completed); next != nil {
		nextID := next.ID
		view.NextLessonID = &nextID
	}

	return view, nil
}

// IsLessonUnlocked reports whether a learner may open a lesson.
func (s *ProgressService) IsLessonUnlocked(ctx context.Context, userID int, lesson *model.Lesson) (bool, error) {
	lessons, rows, err := s.loadModuleState(ctx, userID, lesson.ModuleID)
	if err != nil {
		return false, err
	}
	return progress.IsLessonUnlocked(*lesson, lessons, completedSet(rows)), nil
}

// ApplyResult folds a finished evaluation result into progress. A
// passed lesson quiz raises that lesson's progress to the configured
// floor through the write-behind queue; a passed module final quiz sets
// the final-quiz gate. Failed results change nothing, so a retake can
// never lower earlier standing.
func (s *ProgressService) ApplyResult(ctx context.Context, eval *model.Evaluation, result *model.Result) error {
	if !result.IsPassed {
		return nil
	}

	switch eval.EvaluationType {
	case model.EvaluationTypeLessonQuiz:
		if eval.LessonID == nil {
			return nil
		}
		job := progressJob{
			UserID:           result.UserID,
			ModuleID:         eval.ModuleID.String(),
			LessonID:         eval.LessonID.String(),
			Percentage:       s.cfg.QuizPassProgressFloor,
			TimeSpentMinutes: result.TimeTakenMinutes,
		}
		raw, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("marshal progress job: %w", err)
		}
		if err := s.rdb.RPush(ctx, config.WorkerKey.PersistProgressQueue, raw).Err(); err != nil {
			// Queue unavailable. Apply directly so the pass is never lost.
			s.log.Warn().Err(err).Int("user_id", result.UserID).Msg("Progress queue unavailable, writing directly")
			_, err := s.progressRepo.UpsertLesson(ctx, result.UserID, eval.ModuleID, *eval.LessonID, s.cfg.QuizPassProgressFloor, result.TimeTakenMinutes)
			return err
		}
		return nil

	case model.EvaluationTypeModuleFinalQuiz:
		if err := s.progressRepo.MarkFinalQuizPassed(ctx, result.UserID, eval.ModuleID); err != nil {
			return fmt.Errorf("mark final quiz passed: %w", err)
		}
		return s.progressRepo.AddModuleTime(ctx, result.UserID, eval.ModuleID, result.TimeTakenMinutes)
	}
	return nil
}

func (s *ProgressService) loadModuleState(ctx context.Context, userID int, moduleID uuid.UUID) ([]model.Lesson, []model.UserProgress, error) {
	lessons, err := s.lessonRepo.ListByModule(ctx, moduleID)
	if err != nil {
		return nil, nil, fmt.Errorf("list lessons: %w", err)
	}
	rows, err := s.progressRepo.ListByModule(ctx, userID, moduleID)
	if err != nil {
		return nil, nil, fmt.Errorf("list progress: %w", err)
	}
	return lessons, rows, nil
}

// completedSet builds the completion predicate used by the unlock rules.
func completedSet(rows []model.UserProgress) func(uuid.UUID) bool {
	done := make(map[uuid.UUID]bool, len(rows))
	for _, r := range rows {
		if r.LessonID != nil && r.IsCompleted {
			done[*r.LessonID] = true
		}
	}
	return func(id uuid.UUID) bool { return done[id] }
}
