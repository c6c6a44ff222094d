package repository

import (
	"context"
	"errors"
	"time"

	"github.com/stemsi/tutor-portal/internal/docstore"
	"github.com/stemsi/tutor-portal/internal/examflow"
	"github.com/stemsi/tutor-portal/internal/listing"
	"github.com/stemsi/tutor-portal/internal/model"
)

// ExamRepository handles a group's exams, their questions and the
// submission records under submittedStudents.
type ExamRepository struct {
	docs *docstore.Store
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(docs *docstore.Store) *ExamRepository {
	return &ExamRepository{docs: docs}
}

// ListByGroup retrieves every exam of a group.
func (r *ExamRepository) ListByGroup(ctx context.Context, owner, groupID string) ([]model.Exam, error) {
	docs, err := r.docs.Query(ctx, docstore.NewQuery(groupCollection(owner, groupID, "exams")))
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[model.Exam](docs)
}

// Get retrieves one exam.
func (r *ExamRepository) Get(ctx context.Context, ref examflow.ExamRef) (*model.Exam, error) {
	d, err := r.docs.Get(ctx, docstore.Doc(groupCollection(ref.AdminID, ref.GroupID, "exams"), ref.ExamID))
	if err != nil {
		return nil, err
	}
	e, err := docstore.Decode[model.Exam](*d)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Questions retrieves an exam's questions ordered by createdAt ascending.
func (r *ExamRepository) Questions(ctx context.Context, ref examflow.ExamRef) ([]model.Question, error) {
	q := docstore.NewQuery(examCollection(ref.AdminID, ref.GroupID, ref.ExamID, "questions")).
		Order("createdAt", false)
	docs, err := r.docs.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	qs, err := docstore.DecodeAll[model.Question](docs)
	if err != nil {
		return nil, err
	}
	// createdAt may be stored in several encodings; the database orders
	// raw JSON, so settle the order on decoded times.
	listing.SortByTime(qs, func(q model.Question) time.Time { return q.CreatedAt.Time }, false)
	return qs, nil
}

// GetSubmission retrieves a student's submission record, or nil if none.
func (r *ExamRepository) GetSubmission(ctx context.Context, ref examflow.ExamRef, studentID string) (*model.SubmissionRecord, error) {
	d, err := r.docs.Get(ctx, docstore.Doc(examCollection(ref.AdminID, ref.GroupID, ref.ExamID, "submittedStudents"), studentID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rec, err := docstore.Decode[model.SubmissionRecord](*d)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateSubmission stores rec under the student's id unless a record exists.
func (r *ExamRepository) CreateSubmission(ctx context.Context, ref examflow.ExamRef, rec model.SubmissionRecord) error {
	path := docstore.Doc(examCollection(ref.AdminID, ref.GroupID, ref.ExamID, "submittedStudents"), rec.ID)
	if err := r.docs.Create(ctx, path, rec); err != nil {
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return examflow.ErrAlreadySubmitted
		}
		return err
	}
	return nil
}

// ListSubmissions retrieves all submission records of an exam.
func (r *ExamRepository) ListSubmissions(ctx context.Context, ref examflow.ExamRef) ([]model.SubmissionRecord, error) {
	docs, err := r.docs.Query(ctx, docstore.NewQuery(examCollection(ref.AdminID, ref.GroupID, ref.ExamID, "submittedStudents")))
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[model.SubmissionRecord](docs)
}
