package examflow

import (
	"context"

	"github.com/stemsi/tutor-portal/internal/model"
)

// ExamRef locates an exam in its owner's group.
type ExamRef struct {
	AdminID string
	GroupID string
	ExamID  string
}

// Student identifies who is answering.
type Student struct {
	ID       string
	FullName string
}

// QuestionSource returns an exam's questions ordered by creation time.
type QuestionSource interface {
	Questions(ctx context.Context, exam ExamRef) ([]model.Question, error)
}

// SubmissionStore reads and creates submission records. GetSubmission
// returns nil without error when the student has not submitted.
// CreateSubmission must fail with ErrAlreadySubmitted when a record exists.
type SubmissionStore interface {
	GetSubmission(ctx context.Context, exam ExamRef, studentID string) (*model.SubmissionRecord, error)
	CreateSubmission(ctx context.Context, exam ExamRef, rec model.SubmissionRecord) error
}

// LocalStore is the student's ephemeral key/value storage.
//
// Update replaces the value at key with fn(current) atomically with respect
// to other writers of the same key; current is "" when the key is unset.
// fn may run more than once and must not have side effects.
type LocalStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Update(ctx context.Context, key string, fn func(current string) (string, error)) error
}
