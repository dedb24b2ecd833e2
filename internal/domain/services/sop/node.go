package sop

import (
	"context"

	"rxops/internal/domain/models/sop"
)

// NodeService is the node mutator: structural edits on a document's tree.
// Every operation fails with DocumentArchivedError once the owning document
// is archived.
type NodeService interface {
	// CreateNode appends a node at the end of the target sibling group
	CreateNode(ctx context.Context, req *CreateNodeRequest) (*sop.Node, error)

	// GetNode retrieves a node
	GetNode(ctx context.Context, orgID, nodeID string) (*sop.Node, error)

	// ListNodes returns the flat node collection for a document
	ListNodes(ctx context.Context, orgID, documentID string) ([]sop.Node, error)

	// RenameNode retitles a node; no ordering effect
	RenameNode(ctx context.Context, orgID, nodeID, title string) (*sop.Node, error)

	// DeleteNode removes the node and its whole subtree, reporting how many
	// nodes were removed so the caller can confirm the destruction
	DeleteNode(ctx context.Context, orgID, nodeID string) (*DeleteNodeResult, error)

	// MoveNode swaps the node with its adjacent sibling in the given
	// direction; a move past the edge of the sibling group is a no-op
	MoveNode(ctx context.Context, orgID, nodeID string, direction sop.MoveDirection) error

	// ReparentNode moves a node (with its subtree) under a new parent,
	// failing with CycleError if the new parent is inside the subtree
	ReparentNode(ctx context.Context, orgID, nodeID string, newParentID *string) (*sop.Node, error)
}

// CreateNodeRequest represents a node creation request
type CreateNodeRequest struct {
	OrgID      string  `json:"-"` // from auth context
	DocumentID string  `json:"-"` // from URL
	ParentID   *string `json:"parent_id"`
	Title      string  `json:"title"`
}

// DeleteNodeResult reports the outcome of a subtree deletion
type DeleteNodeResult struct {
	NodeID       string `json:"node_id"`
	RemovedCount int    `json:"removed_count"` // the node itself plus all descendants
}
