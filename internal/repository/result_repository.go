package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// ResultRepository handles evaluation result data access. Results are
// write-once: rows are inserted when an attempt closes and never updated.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `id, evaluation_id, user_id, score, total_points, percentage,
       is_passed, status, time_taken_minutes, started_at, completed_at`

// Create inserts a new result row.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO results (evaluation_id, user_id, score, total_points, percentage, is_passed, status, time_taken_minutes, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		res.EvaluationID, res.UserID, res.Score, res.TotalPoints, res.Percentage,
		res.IsPassed, res.Status, res.TimeTakenMinutes, res.StartedAt, res.CompletedAt,
	).Scan(&res.ID)
}

// GetLatestForUser retrieves a user's most recent result for an
// evaluation, if any.
func (r *ResultRepository) GetLatestForUser(ctx context.Context, userID int, evaluationID uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+`
		 FROM results WHERE user_id = $1 AND evaluation_id = $2
		 ORDER BY completed_at DESC LIMIT 1`, userID, evaluationID,
	).Scan(&res.ID, &res.EvaluationID, &res.UserID, &res.Score, &res.TotalPoints, &res.Percentage,
		&res.IsPassed, &res.Status, &res.TimeTakenMinutes, &res.StartedAt, &res.CompletedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// HasPassed reports whether a user has at least one passing result for
// an evaluation.
func (r *ResultRepository) HasPassed(ctx context.Context, userID int, evaluationID uuid.UUID) (bool, error) {
	var passed bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM results WHERE user_id = $1 AND evaluation_id = $2 AND is_passed)`,
		userID, evaluationID,
	).Scan(&passed)
	return passed, err
}

// ListForUser retrieves all of a user's results, newest first.
func (r *ResultRepository) ListForUser(ctx context.Context, userID int) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM results WHERE user_id = $1
		 ORDER BY completed_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(&res.ID, &res.EvaluationID, &res.UserID, &res.Score, &res.TotalPoints, &res.Percentage,
			&res.IsPassed, &res.Status, &res.TimeTakenMinutes, &res.StartedAt, &res.CompletedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// ResultWithLearner is a result joined with the learner's identity for
// the admin results listing.
type ResultWithLearner struct {
	model.Result
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ListByEvaluationPaginated retrieves an evaluation's results joined
// with learner identity, newest first.
func (r *ResultRepository) ListByEvaluationPaginated(ctx context.Context, evaluationID uuid.UUID, limit, offset int) ([]ResultWithLearner, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM results WHERE evaluation_id = $1`, evaluationID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.evaluation_id, r.user_id, r.score, r.total_points, r.percentage,
		        r.is_passed, r.status, r.time_taken_minutes, r.started_at, r.completed_at,
		        u.email, u.first_name, u.last_name
		 FROM results r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.evaluation_id = $1
		 ORDER BY r.completed_at DESC LIMIT $2 OFFSET $3`, evaluationID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []ResultWithLearner
	for rows.Next() {
		var res ResultWithLearner
		if err := rows.Scan(&res.ID, &res.EvaluationID, &res.UserID, &res.Score, &res.TotalPoints, &res.Percentage,
			&res.IsPassed, &res.Status, &res.TimeTakenMinutes, &res.StartedAt, &res.CompletedAt,
			&res.Email, &res.FirstName, &res.LastName); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}

// EvaluationStats summarizes an evaluation's result set.
type EvaluationStats struct {
	Attempts   int     `json:"attempts"`
	PassCount  int     `json:"pass_count"`
	AvgPercent float64 `json:"avg_percent"`
}

// StatsByEvaluation aggregates attempt counts and averages for the
// admin results view.
func (r *ResultRepository) StatsByEvaluation(ctx context.Context, evaluationID uuid.UUID) (*EvaluationStats, error) {
	s := &EvaluationStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE is_passed),
		        COALESCE(AVG(percentage), 0)
		 FROM results WHERE evaluation_id = $1`, evaluationID,
	).Scan(&s.Attempts, &s.PassCount, &s.AvgPercent)
	if err != nil {
		return nil, err
	}
	return s, nil
}
