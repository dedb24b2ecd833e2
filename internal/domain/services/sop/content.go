package sop

import (
	"context"
	"io"

	"rxops/internal/domain/models/sop"
)

// ContentService manages each node's content variant. Rich-text writes go
// through the debounced autosave scheduler; only SaveRichContent hits the
// store directly.
type ContentService interface {
	// StageRichContent records an edit and (re)starts the node's autosave
	// timer. Nothing is persisted until the timer fires or Flush is called.
	StageRichContent(ctx context.Context, orgID, nodeID, richContent string) error

	// Flush persists the node's pending edit immediately, if any. Called when
	// the editor navigates away from the node.
	Flush(ctx context.Context, orgID, nodeID string) error

	// Discard drops the node's pending edit without persisting
	Discard(ctx context.Context, orgID, nodeID string) error

	// SaveRichContent writes rich content synchronously, bypassing the debounce
	SaveRichContent(ctx context.Context, orgID, nodeID, richContent string) (*sop.Node, error)

	// SwitchContentType changes the active variant. The inactive variant's
	// payload is retained so switching back is lossless.
	SwitchContentType(ctx context.Context, orgID, nodeID string, contentType sop.ContentType) (*sop.Node, error)

	// AttachExternal uploads a file through the storage collaborator and
	// persists the resulting opaque locator on the node
	AttachExternal(ctx context.Context, req *AttachExternalRequest) (*sop.Node, error)

	// ResolveExternalURL resolves a node's locator to a retrievable URL
	ResolveExternalURL(ctx context.Context, orgID, nodeID string) (string, error)

	// Shutdown flushes all pending edits. Called once during server shutdown.
	Shutdown(ctx context.Context)
}

// AttachExternalRequest carries an external document upload
type AttachExternalRequest struct {
	OrgID       string
	NodeID      string
	Filename    string
	ContentType string
	Body        io.Reader
	Size        int64
}
