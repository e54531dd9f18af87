package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetByID retrieves a question by its UUID.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, evaluation_id, question_text, question_type, options, correct_answer,
		        points, order_num, created_at, updated_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.EvaluationID, &q.QuestionText, &q.QuestionType, &q.Options, &q.CorrectAnswer,
		&q.Points, &q.OrderNum, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListByEvaluation retrieves all questions for an evaluation, ordered by
// order_num.
func (r *QuestionRepository) ListByEvaluation(ctx context.Context, evaluationID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, evaluation_id, question_text, question_type, options, correct_answer,
		        points, order_num, created_at, updated_at
		 FROM questions WHERE evaluation_id = $1
		 ORDER BY order_num`, evaluationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.EvaluationID, &q.QuestionText, &q.QuestionType, &q.Options, &q.CorrectAnswer,
			&q.Points, &q.OrderNum, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (evaluation_id, question_text, question_type, options, correct_answer, points, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		q.EvaluationID, q.QuestionText, q.QuestionType, q.Options, q.CorrectAnswer, q.Points, q.OrderNum,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// ReplaceAll swaps an evaluation's question set in a single transaction.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, evaluationID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE evaluation_id = $1`, evaluationID); err != nil {
		return err
	}
	for i := range questions {
		q := &questions[i]
		err := tx.QueryRow(ctx,
			`INSERT INTO questions (evaluation_id, question_text, question_type, options, correct_answer, points, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id, created_at, updated_at`,
			evaluationID, q.QuestionText, q.QuestionType, q.Options, q.CorrectAnswer, q.Points, q.OrderNum,
		).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx,
		`UPDATE evaluations SET total_questions = $1, updated_at = NOW() WHERE id = $2`,
		len(questions), evaluationID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update modifies an existing question.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET question_text = $1, question_type = $2, options = $3, correct_answer = $4,
		     points = $5, order_num = $6, updated_at = NOW()
		 WHERE id = $7`,
		q.QuestionText, q.QuestionType, q.Options, q.CorrectAnswer, q.Points, q.OrderNum, q.ID)
	return err
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
