package sop

import (
	"context"

	"rxops/internal/domain/models/sop"
)

// CompletionService is the completion ledger. It stores per-pair
// acknowledgements and classifies them against the document's current
// version; aggregation across the member roster belongs to the progress
// view, not here.
type CompletionService interface {
	// MarkComplete upserts the (document, member) record at the given version
	MarkComplete(ctx context.Context, req *MarkCompleteRequest) (*sop.CompletionRecord, error)

	// ListForDocument lists a document's records with their derived currency
	ListForDocument(ctx context.Context, orgID, documentID string) ([]sop.CompletionStatus, error)

	// ListForMember lists a member's records across the organization
	ListForMember(ctx context.Context, orgID, memberID string) ([]sop.CompletionStatus, error)
}

// MarkCompleteRequest represents a read acknowledgement
type MarkCompleteRequest struct {
	OrgID      string `json:"-"` // from auth context
	MemberID   string `json:"-"` // from auth context
	DocumentID string `json:"-"` // from URL
	Version    int    `json:"version"`
}
