package sop

import (
	"context"

	"rxops/internal/domain/models/sop"
)

// NodeRepository defines data access operations for document nodes.
type NodeRepository interface {
	// Create inserts a new node
	Create(ctx context.Context, node *sop.Node) error

	// GetByID retrieves a node by ID
	GetByID(ctx context.Context, id string) (*sop.Node, error)

	// GetAllByDocument retrieves the flat node collection for one document,
	// ordered by parent then sort_order
	GetAllByDocument(ctx context.Context, documentID string) ([]sop.Node, error)

	// ListSiblings lists the nodes sharing parentID within a document,
	// ordered ascending by sort_order
	ListSiblings(ctx context.Context, documentID string, parentID *string) ([]sop.Node, error)

	// MaxSortOrder returns the highest sort_order among the siblings sharing
	// parentID, or -1 when the group is empty
	MaxSortOrder(ctx context.Context, documentID string, parentID *string) (int, error)

	// UpdateTitle renames a node
	UpdateTitle(ctx context.Context, id, title string) error

	// UpdateSortOrder sets one node's sort_order. Participates in a
	// context-carried transaction so a sibling swap commits atomically.
	UpdateSortOrder(ctx context.Context, id string, sortOrder int) error

	// UpdateParent moves a node under a new parent with a new sort_order
	UpdateParent(ctx context.Context, id string, parentID *string, sortOrder int) error

	// UpdateContent persists the content variant columns
	UpdateContent(ctx context.Context, node *sop.Node) error

	// DeleteSubtree removes the node and every descendant, returning the
	// total number of rows removed
	DeleteSubtree(ctx context.Context, id string) (int, error)
}
