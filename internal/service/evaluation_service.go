package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stemsi/tutor-portal/internal/config"
	"github.com/stemsi/tutor-portal/internal/listing"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/repository"
)

var ErrInvalidDate = errors.New("invalid date")

// EvaluationService lists the signed-in student's scores in a group.
type EvaluationService struct {
	cfg         *config.Config
	groups      *repository.GroupRepository
	evaluations *repository.EvaluationRepository
}

// NewEvaluationService creates a new EvaluationService.
func NewEvaluationService(cfg *config.Config, groups *repository.GroupRepository, evaluations *repository.EvaluationRepository) *EvaluationService {
	return &EvaluationService{cfg: cfg, groups: groups, evaluations: evaluations}
}

// List returns the student's score rows, oldest first. A non-empty date
// (dd.mm.yyyy) keeps only evaluations held on that day.
func (s *EvaluationService) List(ctx context.Context, profile *model.StudentProfile, groupID, date string) ([]model.EvaluationRow, error) {
	loc := s.cfg.Location()

	var day *time.Time
	if date != "" {
		d, err := listing.ParseDay(date, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
		}
		day = &d
	}

	if _, err := memberGroup(ctx, s.groups, profile, groupID); err != nil {
		return nil, err
	}
	evals, err := s.evaluations.ListByGroup(ctx, profile.AdminID, groupID)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return buildEvaluationRows(evals, profile.ID, day, loc), nil
}

func buildEvaluationRows(evals []model.Evaluation, uid string, day *time.Time, loc *time.Location) []model.EvaluationRow {
	rows := make([]model.EvaluationRow, 0, len(evals))
	for _, e := range evals {
		score, listed := e.ScoreFor(uid)
		if !listed {
			continue
		}
		if day != nil && !listing.SameDay(e.Timestamp.Time, *day, loc) {
			continue
		}
		shown := score.String()
		if shown == "" {
			shown = model.NoScore
		}
		rows = append(rows, model.EvaluationRow{
			EvaluationID: e.ID,
			Date:         listing.FormatDay(e.Timestamp.Time, loc),
			Timestamp:    e.Timestamp,
			Score:        shown,
		})
	}
	listing.SortByTime(rows, func(r model.EvaluationRow) time.Time { return r.Timestamp.Time }, false)
	return rows
}
