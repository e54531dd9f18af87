package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/traindesk/traindesk-backend/internal/config"
	"github.com/traindesk/traindesk-backend/internal/handler"
	"github.com/traindesk/traindesk-backend/internal/middleware"
	"github.com/traindesk/traindesk-backend/internal/response"
	"github.com/traindesk/traindesk-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	LearnerPortal *handler.LearnerPortalHandler
	Attempt       *handler.AttemptHandler
	Module        *handler.ModuleHandler
	Evaluation    *handler.EvaluationHandler
	Question      *handler.QuestionHandler
	User          *handler.UserHandler
	WS            *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
	}

	// ─── 2. Learner Group (JWT + Single Device) ────────────────────────
	learnerAPI := router.Group("/api/v1/learner")
	learnerAPI.Use(
		middleware.RequireLearnerJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		learnerAPI.GET("/modules", handlers.LearnerPortal.ListModules)
		learnerAPI.GET("/modules/:module_id", handlers.LearnerPortal.GetModule)
		learnerAPI.GET("/modules/:module_id/progress", handlers.LearnerPortal.GetModuleProgress)
		learnerAPI.GET("/lessons/:lesson_id", handlers.LearnerPortal.GetLesson)
		learnerAPI.POST("/lessons/:lesson_id/progress", handlers.LearnerPortal.RecordProgress)
		learnerAPI.GET("/results", handlers.LearnerPortal.ListMyResults)

		// Attempt lifecycle over plain HTTP. The WebSocket stream below
		// drives the same state machine for connected clients.
		learnerAPI.POST("/evaluations/:evaluation_id/attempt", handlers.Attempt.Start)
		learnerAPI.GET("/evaluations/:evaluation_id/attempt", handlers.Attempt.GetState)
		learnerAPI.PATCH("/evaluations/:evaluation_id/attempt", handlers.Attempt.Apply)
		learnerAPI.POST("/evaluations/:evaluation_id/attempt/submit", handlers.Attempt.Submit)
	}

	// ─── 3. WebSocket Group (Learner WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireLearnerWSAuth(authService))
	{
		ws.GET("/learner/evaluations/:evaluation_id/stream", handlers.WS.AttemptStream)
	}

	// ─── 4. Admin Group (Staff JWT) ────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireStaffJWT(authService))
	{
		// Module authoring
		adminAPI.GET("/modules", handlers.Module.List)
		adminAPI.POST("/modules", handlers.Module.Create)
		adminAPI.GET("/modules/:module_id", handlers.Module.Get)
		adminAPI.PUT("/modules/:module_id", handlers.Module.Update)
		adminAPI.DELETE("/modules/:module_id", handlers.Module.Delete)

		// Lesson authoring
		adminAPI.POST("/modules/:module_id/lessons", handlers.Module.CreateLesson)
		adminAPI.PUT("/lessons/:lesson_id", handlers.Module.UpdateLesson)
		adminAPI.DELETE("/lessons/:lesson_id", handlers.Module.DeleteLesson)

		// Evaluation authoring and lifecycle
		adminAPI.GET("/modules/:module_id/evaluations", handlers.Evaluation.ListByModule)
		adminAPI.POST("/modules/:module_id/evaluations", handlers.Evaluation.Create)
		adminAPI.GET("/evaluations/:evaluation_id", handlers.Evaluation.Get)
		adminAPI.PUT("/evaluations/:evaluation_id", handlers.Evaluation.Update)
		adminAPI.DELETE("/evaluations/:evaluation_id", handlers.Evaluation.Delete)
		adminAPI.POST("/evaluations/:evaluation_id/activate", handlers.Evaluation.Activate)
		adminAPI.POST("/evaluations/:evaluation_id/deactivate", handlers.Evaluation.Deactivate)
		adminAPI.GET("/evaluations/:evaluation_id/results", handlers.Evaluation.ListResults)

		// Question management
		adminAPI.GET("/evaluations/:evaluation_id/questions", handlers.Question.List)
		adminAPI.POST("/evaluations/:evaluation_id/questions", handlers.Question.Create)
		adminAPI.PUT("/evaluations/:evaluation_id/questions", handlers.Question.ReplaceAll)
		adminAPI.PUT("/evaluations/:evaluation_id/questions/:question_id", handlers.Question.Update)
		adminAPI.DELETE("/evaluations/:evaluation_id/questions/:question_id", handlers.Question.Delete)

		// User management
		adminAPI.GET("/users", handlers.User.List)
		adminAPI.POST("/users", handlers.User.Create)
		adminAPI.PUT("/users/:user_id", handlers.User.Update)
		adminAPI.DELETE("/users/:user_id", handlers.User.Delete)
		adminAPI.POST("/users/:user_id/reset-session", handlers.User.ResetSession)
	}

	return router
}
