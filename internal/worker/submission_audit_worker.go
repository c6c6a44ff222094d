package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/tutor-portal/internal/config"
	"github.com/stemsi/tutor-portal/internal/logger"
	"github.com/stemsi/tutor-portal/internal/metrics"
	"github.com/stemsi/tutor-portal/internal/model"
)

// Execer runs a statement. *pgxpool.Pool implements it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SubmissionAuditWorker consumes submission_audit_queue and appends each
// event to submission_events. Events that fail are logged and dropped;
// the submission record itself is already stored.
type SubmissionAuditWorker struct {
	db      Execer
	rdb     *redis.Client
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewSubmissionAuditWorker creates a new SubmissionAuditWorker.
func NewSubmissionAuditWorker(db Execer, rdb *redis.Client, m *metrics.Metrics, log zerolog.Logger) *SubmissionAuditWorker {
	return &SubmissionAuditWorker{
		db:      db,
		rdb:     rdb,
		metrics: m,
		log:     logger.Component(log, "submission_audit_worker"),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *SubmissionAuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SubmissionAuditWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.SubmissionAuditQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
			time.Sleep(time.Second)
		}
		return
	}
	if len(result) < 2 {
		return
	}
	w.handle(ctx, result[1])
}

func (w *SubmissionAuditWorker) handle(ctx context.Context, raw string) {
	ev, err := decodeEvent(raw)
	if err != nil {
		w.log.Error().Err(err).Msg("Dropping malformed audit event")
		w.metrics.AuditEvents.WithLabelValues("malformed").Inc()
		return
	}

	if err := w.record(ctx, ev); err != nil {
		w.log.Error().Err(err).
			Str("student_id", ev.StudentID).
			Str("exam_id", ev.ExamID).
			Msg("Persist error, event dropped")
		w.metrics.AuditEvents.WithLabelValues("failed").Inc()
		return
	}
	w.metrics.AuditEvents.WithLabelValues("recorded").Inc()
}

func decodeEvent(raw string) (*model.SubmissionEvent, error) {
	var ev model.SubmissionEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return nil, err
	}
	if ev.StudentID == "" || ev.ExamID == "" || ev.GroupID == "" || ev.AdminID == "" {
		return nil, fmt.Errorf("audit event missing ids")
	}
	if ev.Answers == nil {
		ev.Answers = []string{}
	}
	return &ev, nil
}

// record inserts the event once. A replayed event is ignored.
func (w *SubmissionAuditWorker) record(ctx context.Context, ev *model.SubmissionEvent) error {
	answers, err := json.Marshal(ev.Answers)
	if err != nil {
		return err
	}
	_, err = w.db.Exec(ctx,
		`INSERT INTO submission_events (student_id, admin_id, group_id, exam_id, answers, submitted_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6)
		 ON CONFLICT (exam_id, group_id, admin_id, student_id) DO NOTHING`,
		ev.StudentID, ev.AdminID, ev.GroupID, ev.ExamID, string(answers), ev.SubmittedAt.Time,
	)
	return err
}

// drain processes all remaining items in the queue before shutdown.
func (w *SubmissionAuditWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.SubmissionAuditQueue).Result()
		if err != nil {
			break
		}
		w.handle(ctx, raw)
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
