package sop

import (
	"context"

	"rxops/internal/domain/models/sop"
)

// DocumentService governs the draft/published/archived lifecycle.
type DocumentService interface {
	// CreateDocument creates a new draft at version 0
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*sop.Document, error)

	// GetDocument retrieves a document scoped to the caller's organization
	GetDocument(ctx context.Context, orgID, documentID string) (*sop.Document, error)

	// ListDocuments lists the organization's documents; status filters when non-empty
	ListDocuments(ctx context.Context, orgID string, status sop.DocumentStatus) ([]sop.Document, error)

	// UpdateDocument updates title/description; rejected once archived
	UpdateDocument(ctx context.Context, orgID, documentID string, req *UpdateDocumentRequest) (*sop.Document, error)

	// Publish increments the version and stamps published_at. Not idempotent:
	// publishing twice yields two increments.
	Publish(ctx context.Context, orgID, documentID string) (*sop.Document, error)

	// Archive is the one-way terminal transition
	Archive(ctx context.Context, orgID, documentID string) (*sop.Document, error)
}

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	OrgID       string `json:"-"` // from auth context
	CreatedBy   string `json:"-"` // from auth context
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateDocumentRequest represents a metadata update request
type UpdateDocumentRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}
