package repository

import (
	"context"

	"github.com/stemsi/tutor-portal/internal/docstore"
	"github.com/stemsi/tutor-portal/internal/model"
)

// StudentRepository handles students/{uid} profile documents.
type StudentRepository struct {
	docs *docstore.Store
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(docs *docstore.Store) *StudentRepository {
	return &StudentRepository{docs: docs}
}

// WithStore returns a repository over docs, typically a transaction-bound store.
func (r *StudentRepository) WithStore(docs *docstore.Store) *StudentRepository {
	return &StudentRepository{docs: docs}
}

// ProfilePath is the document path of a student's profile.
func ProfilePath(uid string) string {
	return studentPath(uid)
}

// RosterQuery selects every student administered by owner.
func RosterQuery(owner string) docstore.Query {
	return docstore.NewQuery(studentsCollection).Where("adminId", docstore.OpEqual, owner)
}

// GetProfile retrieves a student's profile.
func (r *StudentRepository) GetProfile(ctx context.Context, uid string) (*model.StudentProfile, error) {
	d, err := r.docs.Get(ctx, studentPath(uid))
	if err != nil {
		return nil, err
	}
	p, err := docstore.Decode[model.StudentProfile](*d)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile stores a new profile document.
func (r *StudentRepository) CreateProfile(ctx context.Context, p *model.StudentProfile) error {
	return r.docs.Create(ctx, studentPath(p.ID), p)
}

// UpdateProfile merges fields into the profile document.
func (r *StudentRepository) UpdateProfile(ctx context.Context, uid string, fields map[string]interface{}) error {
	return r.docs.Update(ctx, studentPath(uid), fields)
}

// ListByIDs retrieves the profiles with the given ids. Missing ids are skipped.
func (r *StudentRepository) ListByIDs(ctx context.Context, ids []string) ([]model.StudentProfile, error) {
	if len(ids) == 0 {
		return []model.StudentProfile{}, nil
	}
	docs, err := r.docs.Query(ctx, docstore.NewQuery(studentsCollection).
		Where(docstore.FieldDocumentID, docstore.OpIn, ids))
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[model.StudentProfile](docs)
}

// ListByOwner retrieves every student administered by owner.
func (r *StudentRepository) ListByOwner(ctx context.Context, owner string) ([]model.StudentProfile, error) {
	docs, err := r.docs.Query(ctx, RosterQuery(owner))
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[model.StudentProfile](docs)
}
