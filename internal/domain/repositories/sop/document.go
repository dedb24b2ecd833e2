package sop

import (
	"context"

	"rxops/internal/domain/models/sop"
)

// DocumentRepository defines data access operations for SOP documents.
type DocumentRepository interface {
	// Create inserts a new draft document
	Create(ctx context.Context, doc *sop.Document) error

	// GetByID retrieves a document by ID. When orgID is non-empty the lookup
	// is scoped to that organization.
	GetByID(ctx context.Context, id, orgID string) (*sop.Document, error)

	// ListByOrg lists an organization's documents, optionally filtered by status
	ListByOrg(ctx context.Context, orgID string, status sop.DocumentStatus) ([]sop.Document, error)

	// UpdateMetadata updates title and description; never touches version or status
	UpdateMetadata(ctx context.Context, doc *sop.Document) error

	// Publish atomically increments version, sets status to published, and
	// stamps published_at, returning the updated document. Readers must never
	// observe the new published_at with the old version or vice versa.
	Publish(ctx context.Context, id, orgID string) (*sop.Document, error)

	// Archive marks the document terminal; version is untouched
	Archive(ctx context.Context, id, orgID string) (*sop.Document, error)
}
