package repository

import (
	"context"

	"github.com/stemsi/tutor-portal/internal/docstore"
	"github.com/stemsi/tutor-portal/internal/model"
)

// TaskRepository handles a group's tasks.
type TaskRepository struct {
	docs *docstore.Store
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(docs *docstore.Store) *TaskRepository {
	return &TaskRepository{docs: docs}
}

// ListByGroup retrieves every task of a group.
func (r *TaskRepository) ListByGroup(ctx context.Context, owner, groupID string) ([]model.Task, error) {
	docs, err := r.docs.Query(ctx, docstore.NewQuery(groupCollection(owner, groupID, "tasks")))
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[model.Task](docs)
}
