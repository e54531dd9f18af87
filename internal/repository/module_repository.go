package repository

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// formatInt converts a positional arg index to its string form for
// query building.
func formatInt(n int) string {
	return strconv.Itoa(n)
}

// ModuleRepository handles training module data access.
type ModuleRepository struct {
	pool *pgxpool.Pool
}

// NewModuleRepository creates a new ModuleRepository.
func NewModuleRepository(pool *pgxpool.Pool) *ModuleRepository {
	return &ModuleRepository{pool: pool}
}

// GetByID retrieves a module by its UUID.
func (r *ModuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Module, error) {
	m := &model.Module{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, level, duration_minutes, total_lessons,
		        is_active, created_by, created_at, updated_at
		 FROM modules WHERE id = $1`, id,
	).Scan(&m.ID, &m.Title, &m.Description, &m.Level, &m.DurationMinutes, &m.TotalLessons,
		&m.IsActive, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListActive retrieves all active modules, newest first.
func (r *ModuleRepository) ListActive(ctx context.Context) ([]model.Module, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, level, duration_minutes, total_lessons,
		        is_active, created_by, created_at, updated_at
		 FROM modules WHERE is_active
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanModules(rows)
}

// ListPaginated retrieves modules with pagination for the admin surface.
func (r *ModuleRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Module, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM modules`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, level, duration_minutes, total_lessons,
		        is_active, created_by, created_at, updated_at
		 FROM modules
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	modules, err := scanModules(rows)
	return modules, total, err
}

// Create inserts a new module.
func (r *ModuleRepository) Create(ctx context.Context, m *model.Module) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO modules (title, description, level, duration_minutes, is_active, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, total_lessons, created_at, updated_at`,
		m.Title, m.Description, m.Level, m.DurationMinutes, m.IsActive, m.CreatedBy,
	).Scan(&m.ID, &m.TotalLessons, &m.CreatedAt, &m.UpdatedAt)
}

// Update modifies an existing module.
func (r *ModuleRepository) Update(ctx context.Context, m *model.Module) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE modules
		 SET title = $1, description = $2, level = $3, duration_minutes = $4,
		     is_active = $5, updated_at = NOW()
		 WHERE id = $6`,
		m.Title, m.Description, m.Level, m.DurationMinutes, m.IsActive, m.ID)
	return err
}

// Delete removes a module.
func (r *ModuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM modules WHERE id = $1`, id)
	return err
}

// SyncTotalLessons recounts a module's lessons after authoring changes.
func (r *ModuleRepository) SyncTotalLessons(ctx context.Context, moduleID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE modules
		 SET total_lessons = (SELECT COUNT(*) FROM lessons WHERE module_id = $1),
		     updated_at = NOW()
		 WHERE id = $1`, moduleID)
	return err
}

func scanModules(rows pgx.Rows) ([]model.Module, error) {
	var modules []model.Module
	for rows.Next() {
		var m model.Module
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Level, &m.DurationMinutes, &m.TotalLessons,
			&m.IsActive, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}
