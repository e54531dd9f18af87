package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// ProgressRepository handles user progress data access. All writes are
// monotonic: a stored completion percentage only ever goes up, and
// completed_at is stamped once.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

const progressColumns = `id, user_id, module_id, lesson_id, completion_percentage,
       is_completed, final_quiz_passed, time_spent_minutes, last_accessed_at, completed_at`

// ListByModule retrieves all of a learner's progress rows for a module,
// the module-level row included.
func (r *ProgressRepository) ListByModule(ctx context.Context, userID int, moduleID uuid.UUID) ([]model.UserProgress, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+progressColumns+`
		 FROM user_progress
		 WHERE user_id = $1 AND module_id = $2`,
		userID, moduleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProgress(rows)
}

// UpsertLesson records lesson progress. GREATEST keeps the write
// monotonic under concurrent reports, and completed_at is preserved once
// set.
func (r *ProgressRepository) UpsertLesson(ctx context.Context, userID int, moduleID, lessonID uuid.UUID, percentage, timeSpentMinutes int) (*model.UserProgress, error) {
	p := &model.UserProgress{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO user_progress (user_id, module_id, lesson_id, completion_percentage, is_completed, time_spent_minutes, last_accessed_at, completed_at)
		 VALUES ($1, $2, $3, $4, $4 >= 100, $5, NOW(), CASE WHEN $4 >= 100 THEN NOW() END)
		 ON CONFLICT (user_id, module_id, lesson_id) DO UPDATE
		 SET completion_percentage = GREATEST(user_progress.completion_percentage, EXCLUDED.completion_percentage),
		     is_completed = user_progress.is_completed OR EXCLUDED.is_completed,
		     time_spent_minutes = user_progress.time_spent_minutes + EXCLUDED.time_spent_minutes,
		     last_accessed_at = NOW(),
		     completed_at = COALESCE(user_progress.completed_at, EXCLUDED.completed_at)
		 RETURNING `+progressColumns,
		userID, moduleID, lessonID, percentage, timeSpentMinutes,
	).Scan(&p.ID, &p.UserID, &p.ModuleID, &p.LessonID, &p.CompletionPercentage,
		&p.IsCompleted, &p.FinalQuizPassed, &p.TimeSpentMinutes, &p.LastAccessedAt, &p.CompletedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// MarkFinalQuizPassed sets the final-quiz gate on the module-level row,
// creating it if needed. The gate never resets.
func (r *ProgressRepository) MarkFinalQuizPassed(ctx context.Context, userID int, moduleID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_progress (user_id, module_id, lesson_id, completion_percentage, final_quiz_passed, last_accessed_at)
		 VALUES ($1, $2, NULL, 0, TRUE, NOW())
		 ON CONFLICT (user_id, module_id, lesson_id) DO UPDATE
		 SET final_quiz_passed = TRUE, last_accessed_at = NOW()`,
		userID, moduleID)
	return err
}

// AddModuleTime accumulates time on the module-level row.
func (r *ProgressRepository) AddModuleTime(ctx context.Context, userID int, moduleID uuid.UUID, minutes int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_progress (user_id, module_id, lesson_id, completion_percentage, time_spent_minutes, last_accessed_at)
		 VALUES ($1, $2, NULL, 0, $3, NOW())
		 ON CONFLICT (user_id, module_id, lesson_id) DO UPDATE
		 SET time_spent_minutes = user_progress.time_spent_minutes + EXCLUDED.time_spent_minutes,
		     last_accessed_at = NOW()`,
		userID, moduleID, minutes)
	return err
}

func scanProgress(rows pgx.Rows) ([]model.UserProgress, error) {
	var progress []model.UserProgress
	for rows.Next() {
		var p model.UserProgress
		if err := rows.Scan(&p.ID, &p.UserID, &p.ModuleID, &p.LessonID, &p.CompletionPercentage,
			&p.IsCompleted, &p.FinalQuizPassed, &p.TimeSpentMinutes, &p.LastAccessedAt, &p.CompletedAt); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}
