// Package metrics holds the Prometheus collectors of the tutor portal.
package metrics

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tutor_portal"

// Metrics holds Prometheus metrics for the API server.
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	LiveSessions     prometheus.Gauge
	Submissions      *prometheus.CounterVec
	AuditEvents      *prometheus.CounterVec
	DBConnPoolStats  *prometheus.GaugeVec
}

// New registers the collectors on reg. Tests pass a fresh registry.
func New(reg prometheus.Registerer, subsystem string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		LiveSessions: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "live_sessions",
				Help:      "Open session streams",
			},
		),
		Submissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "exam_submissions_total",
				Help:      "Exam submission attempts by outcome",
			},
			[]string{"result"},
		),
		AuditEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "submission_audit_events_total",
				Help:      "Submission audit events handled by the worker",
			},
			[]string{"result"},
		),
		DBConnPoolStats: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"stat"},
		),
	}
}

// RecordDBPoolStats records database connection pool statistics.
func (m *Metrics) RecordDBPoolStats(s *pgxpool.Stat) {
	m.DBConnPoolStats.WithLabelValues("total").Set(float64(s.TotalConns()))
	m.DBConnPoolStats.WithLabelValues("in_use").Set(float64(s.AcquiredConns()))
	m.DBConnPoolStats.WithLabelValues("idle").Set(float64(s.IdleConns()))
	m.DBConnPoolStats.WithLabelValues("wait_count").Set(float64(s.EmptyAcquireCount()))
	m.DBConnPoolStats.WithLabelValues("wait_duration_ms").Set(float64(s.AcquireDuration() / time.Millisecond))
}
