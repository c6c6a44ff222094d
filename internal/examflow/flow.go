// Package examflow runs one student's pass through an exam: load the
// ordered questions, pick an option per question, and submit once.
//
// Selections are mirrored into a LocalStore under "exam-{id}-answers" and
// the submitted flag under "exam-{id}-submitted". The submission record in
// the backend is authoritative: a cleared LocalStore cannot re-open an
// exam that already has a record.
package examflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stemsi/tutor-portal/internal/config"
	"github.com/stemsi/tutor-portal/internal/model"
)

// State is the flow's position in not-loaded -> loaded -> answering ->
// complete -> submitted.
type State string

const (
	StateNotLoaded State = "not-loaded"
	StateLoaded    State = "loaded"
	StateAnswering State = "answering"
	StateComplete  State = "complete"
	StateSubmitted State = "submitted"
)

const submittedValue = "true"

// Flow is not safe for concurrent use.
type Flow struct {
	exam        ExamRef
	student     Student
	questions   QuestionSource
	submissions SubmissionStore
	local       LocalStore
	now         func() time.Time

	loaded    bool
	submitted bool
	qs        []model.Question
	answers   []string
}

// Option configures a Flow.
type Option func(*Flow)

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// New creates a Flow for student taking exam.
func New(exam ExamRef, student Student, questions QuestionSource, submissions SubmissionStore, local LocalStore, opts ...Option) *Flow {
	f := &Flow{
		exam:        exam,
		student:     student,
		questions:   questions,
		submissions: submissions,
		local:       local,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load fetches the ordered questions and restores saved selections and the
// submitted flag. An exam without questions loads as an empty list.
func (f *Flow) Load(ctx context.Context) ([]model.Question, error) {
	qs, err := f.questions.Questions(ctx, f.exam)
	if err != nil {
		return nil, &FetchError{Op: "questions", Err: err}
	}
	if qs == nil {
		qs = []model.Question{}
	}

	raw, _, err := f.local.Get(ctx, f.answersKey())
	if err != nil {
		return nil, &FetchError{Op: "saved answers", Err: err}
	}
	flag, _, err := f.local.Get(ctx, f.submittedKey())
	if err != nil {
		return nil, &FetchError{Op: "submitted flag", Err: err}
	}

	rec, err := f.submissions.GetSubmission(ctx, f.exam, f.student.ID)
	if err != nil {
		return nil, &FetchError{Op: "submission", Err: err}
	}

	f.qs = qs
	f.answers = alignAnswers(decodeAnswers(raw), len(qs))
	f.submitted = flag == submittedValue
	if rec != nil {
		f.answers = alignAnswers(rec.Answers, len(qs))
		if !f.submitted {
			f.submitted = true
			_ = f.local.Set(ctx, f.submittedKey(), submittedValue)
		}
	}
	f.loaded = true

	return f.Questions(), nil
}

// SelectAnswer records option for the question at index. After submission
// it does nothing.
func (f *Flow) SelectAnswer(ctx context.Context, index int, option string) error {
	if !f.loaded {
		return ErrNotLoaded
	}
	if f.submitted {
		return nil
	}
	if index < 0 || index >= len(f.qs) {
		return ErrQuestionIndex
	}
	pos := model.OptionIndex(option)
	if pos < 0 || pos >= len(f.qs[index].Answers) {
		return ErrInvalidOption
	}

	// Other requests may have saved selections since Load; change only
	// this index of whatever is stored now.
	var saved []string
	err := f.local.Update(ctx, f.answersKey(), func(current string) (string, error) {
		saved = alignAnswers(decodeAnswers(current), len(f.qs))
		saved[index] = option
		raw, err := json.Marshal(saved)
		return string(raw), err
	})
	if err != nil {
		return fmt.Errorf("save answers: %w", err)
	}
	f.answers = saved
	return nil
}

// Submit writes the submission record once every question is answered.
func (f *Flow) Submit(ctx context.Context) (*model.SubmissionRecord, error) {
	if !f.loaded {
		return nil, ErrNotLoaded
	}
	if f.submitted {
		return nil, ErrAlreadySubmitted
	}
	if len(f.qs) == 0 {
		return nil, ErrNoQuestions
	}
	if missing := f.Unanswered(); len(missing) > 0 {
		return nil, &IncompleteError{Unanswered: missing}
	}

	existing, err := f.submissions.GetSubmission(ctx, f.exam, f.student.ID)
	if err != nil {
		return nil, fmt.Errorf("check submission: %w", err)
	}
	if existing != nil {
		f.markSubmitted(ctx)
		return nil, ErrAlreadySubmitted
	}

	rec := model.SubmissionRecord{
		ID:        f.student.ID,
		FullName:  f.student.FullName,
		Answers:   f.Answers(),
		Timestamp: model.NewTimestamp(f.now()),
	}
	if err := f.submissions.CreateSubmission(ctx, f.exam, rec); err != nil {
		if errors.Is(err, ErrAlreadySubmitted) {
			f.markSubmitted(ctx)
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("create submission: %w", err)
	}

	f.markSubmitted(ctx)
	return &rec, nil
}

// markSubmitted sets the flag. The stored record is authoritative, so a
// failed flag write is not reported.
func (f *Flow) markSubmitted(ctx context.Context) {
	f.submitted = true
	_ = f.local.Set(ctx, f.submittedKey(), submittedValue)
}

// State derives the current state.
func (f *Flow) State() State {
	switch {
	case !f.loaded:
		return StateNotLoaded
	case f.submitted:
		return StateSubmitted
	}

	answered := len(f.qs) - len(f.Unanswered())
	switch {
	case answered == 0:
		return StateLoaded
	case answered < len(f.qs):
		return StateAnswering
	default:
		return StateComplete
	}
}

// Questions returns the loaded questions.
func (f *Flow) Questions() []model.Question {
	return append([]model.Question{}, f.qs...)
}

// Answers returns the selections, index-aligned with Questions.
func (f *Flow) Answers() []string {
	return append([]string{}, f.answers...)
}

// Submitted reports whether the student has submitted.
func (f *Flow) Submitted() bool { return f.submitted }

// Unanswered returns the indexes of questions without a selection.
func (f *Flow) Unanswered() []int {
	missing := make([]int, 0)
	for i, a := range f.answers {
		if a == "" {
			missing = append(missing, i)
		}
	}
	return missing
}

func (f *Flow) answersKey() string {
	return config.CacheKey.ExamAnswersKey(f.exam.ExamID)
}

func (f *Flow) submittedKey() string {
	return config.CacheKey.ExamSubmittedKey(f.exam.ExamID)
}

// decodeAnswers reads a saved selection array. Unreadable data and entries
// that are not option letters come back empty.
func decodeAnswers(raw string) []string {
	if raw == "" {
		return nil
	}
	var items []interface{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		if s, ok := item.(string); ok && model.OptionIndex(s) >= 0 {
			out[i] = s
		}
	}
	return out
}

// alignAnswers pads or truncates answers to n entries.
func alignAnswers(answers []string, n int) []string {
	out := make([]string, n)
	copy(out, answers)
	return out
}
