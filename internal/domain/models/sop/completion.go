package sop

import "time"

// CompletionRecord is one member's acknowledgement of having read a document
// at a specific version. At most one record exists per (document, member);
// a later acknowledgement overwrites the earlier one.
type CompletionRecord struct {
	DocumentID      string    `json:"document_id" db:"document_id"`
	MemberID        string    `json:"member_id" db:"member_id"`
	DocumentVersion int       `json:"document_version" db:"document_version"`
	CompletedAt     time.Time `json:"completed_at" db:"completed_at"`
}

// IsCurrentFor reports whether the record still counts against the document's
// current version. A record taken at an earlier version is stale and signals
// that the member must re-acknowledge.
func (r *CompletionRecord) IsCurrentFor(doc *Document) bool {
	return r.DocumentVersion == doc.Version
}

// CompletionStatus is a completion record joined with its derived currency,
// as returned by the ledger's read queries.
type CompletionStatus struct {
	CompletionRecord
	Current bool `json:"current"`
}
