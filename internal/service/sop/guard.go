package sop

import (
	"context"

	"rxops/internal/domain"
	models "rxops/internal/domain/models/sop"
	sopRepo "rxops/internal/domain/repositories/sop"
)

// TreeInvalidator drops a document's cached tree after a mutation.
// *cache.TreeCache satisfies it; services tolerate a nil invalidator.
type TreeInvalidator interface {
	Invalidate(ctx context.Context, documentID string) error
}

// mutableDocument loads a document scoped to the organization and rejects
// the operation if it is archived. Every mutator goes through this gate.
func mutableDocument(ctx context.Context, docRepo sopRepo.DocumentRepository, documentID, orgID string) (*models.Document, error) {
	doc, err := docRepo.GetByID(ctx, documentID, orgID)
	if err != nil {
		return nil, err
	}
	if !doc.Mutable() {
		return nil, &domain.DocumentArchivedError{DocumentID: doc.ID}
	}
	return doc, nil
}
