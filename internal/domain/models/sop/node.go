package sop

import (
	"time"
)

// ContentType selects the active content variant of a node.
type ContentType string

const (
	// ContentRichText renders the node's rich_content payload.
	ContentRichText ContentType = "rich_text"
	// ContentExternalDocument renders an uploaded file referenced by external_ref.
	ContentExternalDocument ContentType = "external_document"
	// ContentContainer has no payload of its own; it only groups children.
	ContentContainer ContentType = "container"
)

// Valid reports whether c is one of the known content variants.
func (c ContentType) Valid() bool {
	switch c {
	case ContentRichText, ContentExternalDocument, ContentContainer:
		return true
	}
	return false
}

// Node is one section of a document, organized in a tree via ParentID and
// SortOrder. Both payload columns are always retained; ContentType selects
// which one is active, so switching variants back and forth is lossless.
type Node struct {
	ID          string      `json:"id" db:"id"`
	DocumentID  string      `json:"document_id" db:"document_id"`
	ParentID    *string     `json:"parent_id" db:"parent_id"` // NULL = root level
	Title       string      `json:"title" db:"title"`
	SortOrder   int         `json:"sort_order" db:"sort_order"`
	ContentType ContentType `json:"content_type" db:"content_type"`
	RichContent string      `json:"rich_content" db:"rich_content"`
	ExternalRef string      `json:"external_ref" db:"external_ref"` // opaque storage locator
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// MoveDirection is the direction of a sibling reorder.
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

// Valid reports whether d is a known direction.
func (d MoveDirection) Valid() bool {
	return d == MoveUp || d == MoveDown
}
