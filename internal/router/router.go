package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stemsi/tutor-portal/internal/config"
	"github.com/stemsi/tutor-portal/internal/handler"
	"github.com/stemsi/tutor-portal/internal/metrics"
	"github.com/stemsi/tutor-portal/internal/middleware"
	"github.com/stemsi/tutor-portal/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Session *handler.SessionHandler
	Group   *handler.GroupHandler
	Exam    *handler.ExamHandler
	Account *handler.AccountHandler
	Health  *handler.HealthHandler
}

// Guards are the authentication dependencies of the route groups.
type Guards struct {
	Tokens   middleware.TokenValidator
	Profiles middleware.ProfileLoader
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background work such as the rate limiter sweep.
func SetupRouter(
	ctx context.Context,
	guards Guards,
	handlers *Handlers,
	m *metrics.Metrics,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Metrics(m))
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		Skipper:   middleware.SkipPaths("/metrics"),
	}))

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authLimiter := middleware.NewRateLimiter(ctx, cfg.AuthRateLimit, time.Minute)
	requireJWT := middleware.RequireStudentJWT(guards.Tokens)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth/student")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/logout", requireJWT, handlers.Auth.Logout)
		auth.GET("/me", requireJWT, handlers.Auth.Me)
	}

	// ─── 2. Student Group (JWT + live session) ─────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.NoStore(), requireJWT)
	{
		studentAPI.GET("/session", handlers.Session.GetSession)

		// Re-authentication is rate limited like sign-in.
		studentAPI.GET("/account", handlers.Account.GetAccount)
		studentAPI.PUT("/account", authLimiter.Middleware(), handlers.Account.UpdateAccount)

		// Owner-scoped pages need a profile with an administrator.
		groups := studentAPI.Group("/groups", middleware.RequireProfile(guards.Profiles))
		{
			groups.GET("", handlers.Group.ListGroups)
			groups.GET("/:group_id", handlers.Group.GetGroup)
			groups.GET("/:group_id/evaluations", handlers.Group.ListEvaluations)
			groups.GET("/:group_id/tasks", handlers.Group.ListTasks)

			groups.GET("/:group_id/exams", handlers.Exam.ListExams)
			groups.GET("/:group_id/exams/:exam_id", handlers.Exam.GetExam)
			groups.GET("/:group_id/exams/:exam_id/questions", handlers.Exam.GetQuestions)
			groups.PUT("/:group_id/exams/:exam_id/answers/:index", handlers.Exam.SelectAnswer)
			groups.POST("/:group_id/exams/:exam_id/submit", handlers.Exam.Submit)
			groups.GET("/:group_id/exams/:exam_id/results", handlers.Exam.GetResults)
		}
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(guards.Tokens))
	{
		ws.GET("/student/session/stream", handlers.Session.SessionStream)
	}

	return router
}
