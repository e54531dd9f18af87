package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/config"
)

const (
	ProgressBatchSize    = 50
	ProgressBatchTimeout = 2 * time.Second
	ProgressPollTimeout  = 1 * time.Second
)

// ProgressWorker consumes persist_progress_queue and flushes lesson
// progress updates to PostgreSQL in batches. Every write is monotonic
// at the SQL level, so batches can land in any order.
type ProgressWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewProgressWorker creates a new ProgressWorker.
func NewProgressWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ProgressWorker {
	return &ProgressWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "progress_worker").Logger(),
	}
}

type progressPayload struct {
	UserID           int    `json:"user_id"`
	ModuleID         string `json:"module_id"`
	LessonID         string `json:"lesson_id"`
	Percentage       int    `json:"percentage"`
	TimeSpentMinutes int    `json:"time_spent_minutes"`
}

// Start begins the worker loop with batching. Call in a goroutine.
func (w *ProgressWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ProgressWorker started")

	batch := make([]*progressPayload, 0, ProgressBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ProgressBatchSize || time.Since(lastFlush) >= ProgressBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ProgressPollTimeout, config.WorkerKey.PersistProgressQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p progressPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

func (w *ProgressWorker) flushSafe(ctx context.Context, batch []*progressPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkUpsertProgress(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk progress upsert failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed, requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistProgressQueue, raw)
			}
		}
	}
}

// bulkUpsertProgress lands the whole batch with one UNNEST statement.
// GREATEST keeps each row monotonic no matter how the batch interleaves
// with direct writes.
func (w *ProgressWorker) bulkUpsertProgress(ctx context.Context, batch []*progressPayload) error {
	n := len(batch)

	users := make([]int, 0, n)
	moduleIDs := make([]uuid.UUID, 0, n)
	lessonIDs := make([]uuid.UUID, 0, n)
	percentages := make([]int, 0, n)
	minutes := make([]int, 0, n)

	for _, p := range batch {
		mID, err := uuid.Parse(p.ModuleID)
		if err != nil {
			return err
		}
		lID, err := uuid.Parse(p.LessonID)
		if err != nil {
			return err
		}
		users = append(users, p.UserID)
		moduleIDs = append(moduleIDs, mID)
		lessonIDs = append(lessonIDs, lID)
		percentages = append(percentages, p.Percentage)
		minutes = append(minutes, p.TimeSpentMinutes)
	}

	query := `
		INSERT INTO user_progress (user_id, module_id, lesson_id, completion_percentage, is_completed, time_spent_minutes, last_accessed_at, completed_at)
		SELECT
			u.user_id,
			u.module_id,
			u.lesson_id,
			LEAST(GREATEST(u.pct, 0), 100),
			u.pct >= 100,
			u.mins,
			NOW(),
			CASE WHEN u.pct >= 100 THEN NOW() END
		FROM UNNEST(
			$1::int[],
			$2::uuid[],
			$3::uuid[],
			$4::int[],
			$5::int[]
		) AS u (user_id, module_id, lesson_id, pct, mins)
		ON CONFLICT (user_id, module_id, lesson_id) DO UPDATE
		SET completion_percentage = GREATEST(user_progress.completion_percentage, EXCLUDED.completion_percentage),
		    is_completed = user_progress.is_completed OR EXCLUDED.is_completed,
		    time_spent_minutes = user_progress.time_spent_minutes + EXCLUDED.time_spent_minutes,
		    last_accessed_at = NOW(),
		    completed_at = COALESCE(user_progress.completed_at, EXCLUDED.completed_at)
	`

	_, err := w.pool.Exec(ctx, query, users, moduleIDs, lessonIDs, percentages, minutes)
	return err
}

// persistSingle is the fallback when the bulk statement fails.
func (w *ProgressWorker) persistSingle(ctx context.Context, p *progressPayload) error {
	mID, err := uuid.Parse(p.ModuleID)
	if err != nil {
		return err
	}
	lID, err := uuid.Parse(p.LessonID)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`INSERT INTO user_progress (user_id, module_id, lesson_id, completion_percentage, is_completed, time_spent_minutes, last_accessed_at, completed_at)
		 VALUES ($1, $2, $3, LEAST(GREATEST($4, 0), 100), $4 >= 100, $5, NOW(), CASE WHEN $4 >= 100 THEN NOW() END)
		 ON CONFLICT (user_id, module_id, lesson_id) DO UPDATE
		 SET completion_percentage = GREATEST(user_progress.completion_percentage, EXCLUDED.completion_percentage),
		     is_completed = user_progress.is_completed OR EXCLUDED.is_completed,
		     time_spent_minutes = user_progress.time_spent_minutes + EXCLUDED.time_spent_minutes,
		     last_accessed_at = NOW(),
		     completed_at = COALESCE(user_progress.completed_at, EXCLUDED.completed_at)`,
		p.UserID, mID, lID, p.Percentage, p.TimeSpentMinutes,
	)
	return err
}
