package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/tutor-portal/internal/config"
	"github.com/stemsi/tutor-portal/internal/examflow"
	"github.com/stemsi/tutor-portal/internal/listing"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/repository"
)

var ErrExamNotFound = errors.New("exam not found")

// ExamSummary is an exam with its window status at request time.
type ExamSummary struct {
	model.Exam
	Window model.WindowStatus `json:"window"`
}

// ExamDetail is the exam header shown above the question sheet.
type ExamDetail struct {
	ExamSummary
	Submitted bool `json:"submitted"`
}

// QuestionSheet is the student's view of an exam in progress.
type QuestionSheet struct {
	Questions  []model.Question `json:"questions"`
	Answers    []string         `json:"answers"`
	Unanswered []int            `json:"unanswered"`
	State      examflow.State   `json:"state"`
	Submitted  bool             `json:"submitted"`
	Empty      bool             `json:"empty"`
}

// ExamService lists a group's exams and drives the question flow.
type ExamService struct {
	cfg      *config.Config
	rdb      *redis.Client
	groups   *repository.GroupRepository
	exams    *repository.ExamRepository
	students *repository.StudentRepository
	log      zerolog.Logger
	now      func() time.Time
}

// NewExamService creates a new ExamService.
func NewExamService(
	cfg *config.Config,
	rdb *redis.Client,
	groups *repository.GroupRepository,
	exams *repository.ExamRepository,
	students *repository.StudentRepository,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		cfg:      cfg,
		rdb:      rdb,
		groups:   groups,
		exams:    exams,
		students: students,
		log:      log.With().Str("component", "exam_service").Logger(),
		now:      time.Now,
	}
}

// List returns the group's visible exams whose title matches search.
func (s *ExamService) List(ctx context.Context, profile *model.StudentProfile, groupID, search string) ([]ExamSummary, error) {
	if _, err := memberGroup(ctx, s.groups, profile, groupID); err != nil {
		return nil, err
	}
	exams, err := s.exams.ListByGroup(ctx, profile.AdminID, groupID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return summarizeExams(exams, search, s.now(), s.cfg.Location()), nil
}

// Get returns the exam header and whether the student already submitted.
func (s *ExamService) Get(ctx context.Context, profile *model.StudentProfile, groupID, examID string) (*ExamDetail, error) {
	ref, _, exam, err := s.visibleExam(ctx, profile, groupID, examID)
	if err != nil {
		return nil, err
	}
	rec, err := s.exams.GetSubmission(ctx, ref, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return &ExamDetail{
		ExamSummary: ExamSummary{Exam: *exam, Window: exam.Window(s.now(), s.cfg.Location())},
		Submitted:   rec != nil,
	}, nil
}

// Questions loads the question sheet with the student's saved selections.
func (s *ExamService) Questions(ctx context.Context, profile *model.StudentProfile, groupID, examID string) (*QuestionSheet, error) {
	flow, err := s.loadFlow(ctx, profile, groupID, examID)
	if err != nil {
		return nil, err
	}
	return sheetOf(flow), nil
}

// SelectAnswer records option for the question at index.
func (s *ExamService) SelectAnswer(ctx context.Context, profile *model.StudentProfile, groupID, examID string, index int, option string) (*QuestionSheet, error) {
	flow, err := s.loadFlow(ctx, profile, groupID, examID)
	if err != nil {
		return nil, err
	}
	if err := flow.SelectAnswer(ctx, index, option); err != nil {
		return nil, err
	}
	return sheetOf(flow), nil
}

// Submit stores the student's submission record and queues an audit event.
func (s *ExamService) Submit(ctx context.Context, profile *model.StudentProfile, groupID, examID string) (*model.SubmissionRecord, error) {
	flow, err := s.loadFlow(ctx, profile, groupID, examID)
	if err != nil {
		return nil, err
	}
	rec, err := flow.Submit(ctx)
	if err != nil {
		return nil, err
	}

	s.enqueueAudit(ctx, model.SubmissionEvent{
		StudentID:   profile.ID,
		AdminID:     profile.AdminID,
		GroupID:     groupID,
		ExamID:      examID,
		Answers:     rec.Answers,
		SubmittedAt: rec.Timestamp,
	})

	s.log.Info().
		Str("student_id", profile.ID).
		Str("exam_id", examID).
		Int("answers", len(rec.Answers)).
		Msg("Exam submitted")
	return rec, nil
}

// Results returns the group roster merged with the exam's submissions.
func (s *ExamService) Results(ctx context.Context, profile *model.StudentProfile, groupID, examID string) ([]model.ResultRow, error) {
	ref, group, _, err := s.visibleExam(ctx, profile, groupID, examID)
	if err != nil {
		return nil, err
	}
	roster, err := s.students.ListByIDs(ctx, group.Students)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	records, err := s.exams.ListSubmissions(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return buildResultRows(roster, records), nil
}

// visibleExam resolves an exam the student may see: the group must list
// them and the exam must be shown. Hidden exams read as not found.
func (s *ExamService) visibleExam(ctx context.Context, profile *model.StudentProfile, groupID, examID string) (examflow.ExamRef, *model.Group, *model.Exam, error) {
	ref := examflow.ExamRef{AdminID: profile.AdminID, GroupID: groupID, ExamID: examID}
	group, err := memberGroup(ctx, s.groups, profile, groupID)
	if err != nil {
		return ref, nil, nil, err
	}
	exam, err := s.exams.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ref, nil, nil, ErrExamNotFound
		}
		return ref, nil, nil, fmt.Errorf("get exam: %w", err)
	}
	if !exam.IsShow {
		return ref, nil, nil, ErrExamNotFound
	}
	return ref, group, exam, nil
}

// loadFlow rebuilds the student's flow for one request.
func (s *ExamService) loadFlow(ctx context.Context, profile *model.StudentProfile, groupID, examID string) (*examflow.Flow, error) {
	ref, _, _, err := s.visibleExam(ctx, profile, groupID, examID)
	if err != nil {
		return nil, err
	}
	flow := examflow.New(
		ref,
		examflow.Student{ID: profile.ID, FullName: profile.FullName},
		s.exams,
		s.exams,
		NewSelectionStore(s.rdb, profile.ID, s.cfg.SelectionTTL),
		examflow.WithClock(s.now),
	)
	if _, err := flow.Load(ctx); err != nil {
		return nil, err
	}
	return flow, nil
}

// enqueueAudit pushes the event for the audit worker. The submission is
// already stored, so a failed push is only logged.
func (s *ExamService) enqueueAudit(ctx context.Context, ev model.SubmissionEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal audit event")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.SubmissionAuditQueue, raw).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", ev.ExamID).Msg("Audit enqueue failed")
	}
}

func sheetOf(f *examflow.Flow) *QuestionSheet {
	qs := f.Questions()
	return &QuestionSheet{
		Questions:  qs,
		Answers:    f.Answers(),
		Unanswered: f.Unanswered(),
		State:      f.State(),
		Submitted:  f.Submitted(),
		Empty:      len(qs) == 0,
	}
}

func summarizeExams(exams []model.Exam, search string, now time.Time, loc *time.Location) []ExamSummary {
	visible := make([]model.Exam, 0, len(exams))
	for _, e := range exams {
		if e.IsShow {
			visible = append(visible, e)
		}
	}
	visible = listing.Filter(visible, search, func(e model.Exam) string { return e.Title })

	out := make([]ExamSummary, 0, len(visible))
	for _, e := range visible {
		out = append(out, ExamSummary{Exam: e, Window: e.Window(now, loc)})
	}
	return out
}

// buildResultRows lists every roster student, taking answers and time from
// their submission record when one exists.
func buildResultRows(roster []model.StudentProfile, records []model.SubmissionRecord) []model.ResultRow {
	base := make([]model.ResultRow, 0, len(roster))
	for _, p := range roster {
		base = append(base, model.ResultRow{ID: p.ID, FullName: p.FullName})
	}
	overlay := make([]model.ResultRow, 0, len(records))
	for _, r := range records {
		overlay = append(overlay, model.ResultRow{
			ID:        r.ID,
			FullName:  r.FullName,
			Submitted: true,
			Answers:   r.Answers,
			Timestamp: r.Timestamp,
		})
	}
	return listing.MergeByID(base, overlay, func(r model.ResultRow) string { return r.ID })
}
