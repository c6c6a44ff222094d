package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stemsi/tutor-portal/internal/config"
	"github.com/stemsi/tutor-portal/internal/database"
	"github.com/stemsi/tutor-portal/internal/docstore"
	"github.com/stemsi/tutor-portal/internal/handler"
	"github.com/stemsi/tutor-portal/internal/logger"
	"github.com/stemsi/tutor-portal/internal/metrics"
	"github.com/stemsi/tutor-portal/internal/repository"
	"github.com/stemsi/tutor-portal/internal/router"
	"github.com/stemsi/tutor-portal/internal/service"
	"github.com/stemsi/tutor-portal/internal/validator"
	"github.com/stemsi/tutor-portal/internal/worker"
)

const poolStatsInterval = 15 * time.Second

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("timezone", cfg.Location().String()).
		Msg("Starting Tutor Portal")

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

	docs := docstore.New(pool, rdb, log)
	m := metrics.New(prometheus.DefaultRegisterer, "api")

	// ─── Initialize Repositories ───────────────────────────────────────
	accountRepo := repository.NewAccountRepository(pool)
	studentRepo := repository.NewStudentRepository(docs)
	groupRepo := repository.NewGroupRepository(docs)
	examRepo := repository.NewExamRepository(docs)
	evaluationRepo := repository.NewEvaluationRepository(docs)
	taskRepo := repository.NewTaskRepository(docs)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, accountRepo, log)
	studentService := service.NewStudentService(docs, studentRepo, accountRepo, authService)
	sessionService := service.NewSessionService(docs, authService, log)
	groupService := service.NewGroupService(groupRepo, studentRepo)
	examService := service.NewExamService(cfg, rdb, groupRepo, examRepo, studentRepo, log)
	evaluationService := service.NewEvaluationService(cfg, groupRepo, evaluationRepo)
	taskService := service.NewTaskService(groupRepo, taskRepo)
	accountService := service.NewAccountService(docs, studentRepo, accountRepo, authService, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService, log),
		Session: handler.NewSessionHandler(authService, sessionService, m, log, cfg.AllowedOrigins),
		Group:   handler.NewGroupHandler(groupService, evaluationService, taskService, log),
		Exam:    handler.NewExamHandler(examService, m, log),
		Account: handler.NewAccountHandler(accountService, log),
		Health:  handler.NewHealthHandler(pool, rdb),
	}
	guards := router.Guards{Tokens: authService, Profiles: studentService}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	auditWorker := worker.NewSubmissionAuditWorker(pool, rdb, m, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		auditWorker.Start(workerCtx)
	}()

	go func() {
		ticker := time.NewTicker(poolStatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				m.RecordDBPoolStats(pool.Stat())
			}
		}
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, guards, handlers, m, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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
	// Hijacked WebSocket connections are not tracked by Shutdown.
	cancel()

	// 2. Stop background workers and wait for the audit queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
