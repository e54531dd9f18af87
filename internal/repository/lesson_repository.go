package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// LessonRepository handles lesson data access.
type LessonRepository struct {
	pool *pgxpool.Pool
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{pool: pool}
}

// GetByID retrieves a lesson by its UUID.
func (r *LessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	l := &model.Lesson{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, module_id, title, description, content, lesson_type, content_url,
		        duration_minutes, order_num, created_at, updated_at
		 FROM lessons WHERE id = $1`, id,
	).Scan(&l.ID, &l.ModuleID, &l.Title, &l.Description, &l.Content, &l.LessonType, &l.ContentURL,
		&l.DurationMinutes, &l.OrderNum, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ListByModule retrieves all lessons for a module, ordered by order_num.
func (r *LessonRepository) ListByModule(ctx context.Context, moduleID uuid.UUID) ([]model.Lesson, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, module_id, title, description, content, lesson_type, content_url,
		        duration_minutes, order_num, created_at, updated_at
		 FROM lessons WHERE module_id = $1
		 ORDER BY order_num`, moduleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []model.Lesson
	for rows.Next() {
		var l model.Lesson
		if err := rows.Scan(&l.ID, &l.ModuleID, &l.Title, &l.Description, &l.Content, &l.LessonType, &l.ContentURL,
			&l.DurationMinutes, &l.OrderNum, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// Create inserts a new lesson.
func (r *LessonRepository) Create(ctx context.Context, l *model.Lesson) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO lessons (module_id, title, description, content, lesson_type, content_url, duration_minutes, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		l.ModuleID, l.Title, l.Description, l.Content, l.LessonType, l.ContentURL, l.DurationMinutes, l.OrderNum,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

// Update modifies an existing lesson.
func (r *LessonRepository) Update(ctx context.Context, l *model.Lesson) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE lessons
		 SET title = $1, description = $2, content = $3, lesson_type = $4, content_url = $5,
		     duration_minutes = $6, order_num = $7, updated_at = NOW()
		 WHERE id = $8`,
		l.Title, l.Description, l.Content, l.LessonType, l.ContentURL, l.DurationMinutes, l.OrderNum, l.ID)
	return err
}

// Delete removes a lesson.
func (r *LessonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	return err
}
