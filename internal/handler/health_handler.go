package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/tutor-portal/internal/config"
)

const healthTimeout = 2 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler reports dependency status and a few runtime figures.
type HealthHandler struct {
	checks    map[string]HealthCheck
	queueLen  func(ctx context.Context) (int64, error)
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler probing PostgreSQL and Redis.
func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client) *HealthHandler {
	return newHealthHandler(
		map[string]HealthCheck{
			"database": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		func(ctx context.Context) (int64, error) {
			return rdb.LLen(ctx, config.WorkerKey.SubmissionAuditQueue).Result()
		},
	)
}

func newHealthHandler(checks map[string]HealthCheck, queueLen func(ctx context.Context) (int64, error)) *HealthHandler {
	return &HealthHandler{checks: checks, queueLen: queueLen, startTime: time.Now()}
}

// Health godoc
// GET /health
// 200 when every dependency answers, 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = "down: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := gin.H{
		"status":       http.StatusText(status),
		"dependencies": deps,
		"uptime":       formatDuration(time.Since(h.startTime)),
		"goroutines":   runtime.NumGoroutine(),
		"go_version":   runtime.Version(),
	}
	if n, err := h.queueLen(ctx); err == nil {
		body["audit_queue"] = n
	}

	c.JSON(status, body)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
