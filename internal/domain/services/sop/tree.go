package sop

import (
	"context"

	"rxops/internal/domain/models/sop"
)

// TreeService derives the display hierarchy for a document.
type TreeService interface {
	// GetTree builds the forest from the document's flat node collection
	GetTree(ctx context.Context, orgID, documentID string) (*sop.Tree, error)
}
