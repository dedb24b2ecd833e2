package sop

import (
	"time"
)

// DocumentStatus is the lifecycle state of an SOP document.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusPublished DocumentStatus = "published"
	StatusArchived  DocumentStatus = "archived"
)

// Valid reports whether s is one of the known lifecycle states.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Document is one versioned standard operating procedure.
// Version starts at 0 in draft and is incremented only by a publish
// transition; archived is terminal for all writes.
type Document struct {
	ID          string         `json:"id" db:"id"`
	OrgID       string         `json:"org_id" db:"org_id"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`
	Status      DocumentStatus `json:"status" db:"status"`
	Version     int            `json:"version" db:"version"`
	PublishedAt *time.Time     `json:"published_at,omitempty" db:"published_at"`
	CreatedBy   string         `json:"created_by" db:"created_by"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Mutable reports whether the document still accepts node and metadata writes.
func (d *Document) Mutable() bool {
	return d.Status != StatusArchived
}
