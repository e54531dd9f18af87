package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// EvaluationRepository handles evaluation data access.
type EvaluationRepository struct {
	pool *pgxpool.Pool
}

// NewEvaluationRepository creates a new EvaluationRepository.
func NewEvaluationRepository(pool *pgxpool.Pool) *EvaluationRepository {
	return &EvaluationRepository{pool: pool}
}

const evaluationColumns = `id, module_id, lesson_id, title, description, evaluation_type,
       total_questions, passing_score, time_limit_minutes, is_active, created_by, created_at, updated_at`

// GetByID retrieves an evaluation by its UUID.
func (r *EvaluationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Evaluation, error) {
	e := &model.Evaluation{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id,
	).Scan(&e.ID, &e.ModuleID, &e.LessonID, &e.Title, &e.Description, &e.EvaluationType,
		&e.TotalQuestions, &e.PassingScore, &e.TimeLimitMinutes, &e.IsActive, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListByModule retrieves all evaluations attached to a module.
func (r *EvaluationRepository) ListByModule(ctx context.Context, moduleID uuid.UUID) ([]model.Evaluation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+evaluationColumns+`
		 FROM evaluations WHERE module_id = $1
		 ORDER BY created_at`, moduleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvaluations(rows)
}

// ListActive retrieves every active evaluation, used to warm caches at
// startup.
func (r *EvaluationRepository) ListActive(ctx context.Context) ([]model.Evaluation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE is_active`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvaluations(rows)
}

// GetActiveByLesson retrieves the active lesson quiz for a lesson, if any.
func (r *EvaluationRepository) GetActiveByLesson(ctx context.Context, lessonID uuid.UUID) (*model.Evaluation, error) {
	e := &model.Evaluation{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+evaluationColumns+`
		 FROM evaluations WHERE lesson_id = $1 AND is_active
		 ORDER BY created_at DESC LIMIT 1`, lessonID,
	).Scan(&e.ID, &e.ModuleID, &e.LessonID, &e.Title, &e.Description, &e.EvaluationType,
		&e.TotalQuestions, &e.PassingScore, &e.TimeLimitMinutes, &e.IsActive, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts a new evaluation.
func (r *EvaluationRepository) Create(ctx context.Context, e *model.Evaluation) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO evaluations (module_id, lesson_id, title, description, evaluation_type, passing_score, time_limit_minutes, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, total_questions, is_active, created_at, updated_at`,
		e.ModuleID, e.LessonID, e.Title, e.Description, e.EvaluationType, e.PassingScore, e.TimeLimitMinutes, e.CreatedBy,
	).Scan(&e.ID, &e.TotalQuestions, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
}

// Update modifies an existing evaluation.
func (r *EvaluationRepository) Update(ctx context.Context, e *model.Evaluation) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE evaluations
		 SET title = $1, description = $2, passing_score = $3, time_limit_minutes = $4, updated_at = NOW()
		 WHERE id = $5`,
		e.Title, e.Description, e.PassingScore, e.TimeLimitMinutes, e.ID)
	return err
}

// SetActive flips the published flag.
func (r *EvaluationRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE evaluations SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	return err
}

// SyncTotalQuestions recounts an evaluation's questions after authoring
// changes.
func (r *EvaluationRepository) SyncTotalQuestions(ctx context.Context, evaluationID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE evaluations
		 SET total_questions = (SELECT COUNT(*) FROM questions WHERE evaluation_id = $1),
		     updated_at = NOW()
		 WHERE id = $1`, evaluationID)
	return err
}

// Delete removes an evaluation.
func (r *EvaluationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM evaluations WHERE id = $1`, id)
	return err
}

func scanEvaluations(rows pgx.Rows) ([]model.Evaluation, error) {
	var evaluations []model.Evaluation
	for rows.Next() {
		var e model.Evaluation
		if err := rows.Scan(&e.ID, &e.ModuleID, &e.LessonID, &e.Title, &e.Description, &e.EvaluationType,
			&e.TotalQuestions, &e.PassingScore, &e.TimeLimitMinutes, &e.IsActive, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		evaluations = append(evaluations, e)
	}
	return evaluations, rows.Err()
}
