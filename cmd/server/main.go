package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/config"
	"github.com/traindesk/traindesk-backend/internal/database"
	"github.com/traindesk/traindesk-backend/internal/handler"
	"github.com/traindesk/traindesk-backend/internal/logger"
	"github.com/traindesk/traindesk-backend/internal/repository"
	"github.com/traindesk/traindesk-backend/internal/router"
	"github.com/traindesk/traindesk-backend/internal/service"
	"github.com/traindesk/traindesk-backend/internal/validator"
	"github.com/traindesk/traindesk-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting TrainDesk Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	moduleRepo := repository.NewModuleRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)
	evaluationRepo := repository.NewEvaluationRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	progressRepo := repository.NewProgressRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	userService := service.NewUserService(userRepo, authService, log)
	moduleService := service.NewModuleService(moduleRepo, lessonRepo, log)
	lessonService := service.NewLessonService(lessonRepo, moduleRepo, log)
	evaluationService := service.NewEvaluationService(evaluationRepo, questionRepo, lessonRepo, rdb, log)
	questionService := service.NewQuestionService(questionRepo, evaluationRepo, evaluationService, log)
	progressService := service.NewProgressService(progressRepo, lessonRepo, cfg, rdb, log)
	resultService := service.NewResultService(resultRepo, log)
	attemptService := service.NewAttemptService(evaluationRepo, resultRepo, evaluationService, progressService, rdb, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, userService),
		LearnerPortal: handler.NewLearnerPortalHandler(moduleService, lessonService, evaluationService, progressService, resultService),
		Attempt:       handler.NewAttemptHandler(attemptService),
		Module:        handler.NewModuleHandler(moduleService, lessonService),
		Evaluation:    handler.NewEvaluationHandler(evaluationService, resultService),
		Question:      handler.NewQuestionHandler(questionService),
		User:          handler.NewUserHandler(userService, authService),
		WS:            handler.NewWSHandler(attemptService, resultService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	answerWorker := worker.NewAnswerWorker(pool, rdb, log)
	progressWorker := worker.NewProgressWorker(pool, rdb, log)

	go answerWorker.Start(workerCtx)
	go progressWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all active evaluations into Redis BEFORE accepting traffic.
	// This avoids race conditions from lazy loading under thundering herd.
	if err := evaluationService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Park live attempts. Their Redis mirrors survive the restart,
	// so in-progress attempts resume when the process comes back.
	attemptService.Shutdown()

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
