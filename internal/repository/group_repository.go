package repository

import (
	"context"

	"github.com/stemsi/tutor-portal/internal/docstore"
	"github.com/stemsi/tutor-portal/internal/model"
)

// GroupRepository handles an owner's groups, courses and teachers.
type GroupRepository struct {
	docs *docstore.Store
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(docs *docstore.Store) *GroupRepository {
	return &GroupRepository{docs: docs}
}

// GroupsOfStudentQuery selects the owner's groups that list uid as a member.
func GroupsOfStudentQuery(owner, uid string) docstore.Query {
	return docstore.NewQuery(ownerCollection(owner, "groups")).
		Where("students", docstore.OpArrayContains, uid)
}

// CoursesQuery selects all of the owner's courses.
func CoursesQuery(owner string) docstore.Query {
	return docstore.NewQuery(ownerCollection(owner, "courses"))
}

// TeachersQuery selects all of the owner's teachers.
func TeachersQuery(owner string) docstore.Query {
	return docstore.NewQuery(ownerCollection(owner, "teachers"))
}

// ListForStudent retrieves the groups uid belongs to.
func (r *GroupRepository) ListForStudent(ctx context.Context, owner, uid string) ([]model.Group, error) {
	docs, err := r.docs.Query(ctx, GroupsOfStudentQuery(owner, uid))
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[model.Group](docs)
}

// Get retrieves one group.
func (r *GroupRepository) Get(ctx context.Context, owner, groupID string) (*model.Group, error) {
	d, err := r.docs.Get(ctx, docstore.Doc(ownerCollection(owner, "groups"), groupID))
	if err != nil {
		return nil, err
	}
	g, err := docstore.Decode[model.Group](*d)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListCourses retrieves the owner's courses.
func (r *GroupRepository) ListCourses(ctx context.Context, owner string) ([]model.Course, error) {
	docs, err := r.docs.Query(ctx, CoursesQuery(owner))
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[model.Course](docs)
}

// ListTeachers retrieves the owner's teachers.
func (r *GroupRepository) ListTeachers(ctx context.Context, owner string) ([]model.Teacher, error) {
	docs, err := r.docs.Query(ctx, TeachersQuery(owner))
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[model.Teacher](docs)
}
