package sop

import (
	"context"

	"rxops/internal/domain/models/sop"
)

// CompletionRepository defines data access operations for completion records.
type CompletionRepository interface {
	// Upsert inserts the record or overwrites the existing one for the same
	// (document, member) pair
	Upsert(ctx context.Context, rec *sop.CompletionRecord) error

	// GetByDocumentMember retrieves the single record for a pair
	GetByDocumentMember(ctx context.Context, documentID, memberID string) (*sop.CompletionRecord, error)

	// ListByDocument lists all records for a document
	ListByDocument(ctx context.Context, documentID string) ([]sop.CompletionRecord, error)

	// ListByMember lists all of a member's records across an organization's documents
	ListByMember(ctx context.Context, orgID, memberID string) ([]sop.CompletionRecord, error)
}
