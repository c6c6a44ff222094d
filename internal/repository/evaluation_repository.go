package repository

import (
	"context"

	"github.com/stemsi/tutor-portal/internal/docstore"
	"github.com/stemsi/tutor-portal/internal/model"
)

// EvaluationRepository handles a group's evaluations.
type EvaluationRepository struct {
	docs *docstore.Store
}

// NewEvaluationRepository creates a new EvaluationRepository.
func NewEvaluationRepository(docs *docstore.Store) *EvaluationRepository {
	return &EvaluationRepository{docs: docs}
}

// ListByGroup retrieves every evaluation of a group.
func (r *EvaluationRepository) ListByGroup(ctx context.Context, owner, groupID string) ([]model.Evaluation, error) {
	docs, err := r.docs.Query(ctx, docstore.NewQuery(groupCollection(owner, groupID, "evaluations")))
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[model.Evaluation](docs)
}
