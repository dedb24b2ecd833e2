package config

import "time"

const (
	// MaxDocumentTitleLength is the maximum length for document titles.
	// Limited to 255 to fit in a VARCHAR(255)-sized column and keep titles
	// short and descriptive.
	MaxDocumentTitleLength = 255

	// MaxNodeTitleLength is the maximum length for section titles.
	// Same as document titles for consistency.
	MaxNodeTitleLength = 255

	// MaxDescriptionLength bounds document descriptions.
	MaxDescriptionLength = 2000

	// MaxRichContentBytes bounds a single node's rich content payload.
	// Rich text is an opaque serialized string; 2MB covers very large
	// sections while keeping autosave writes cheap.
	MaxRichContentBytes = 2 << 20

	// MaxUploadBytes bounds an external document upload.
	MaxUploadBytes = 25 << 20

	// DefaultAutosaveDelay is the debounce quiet period for rich content
	// edits. Rapid edits produce zero writes until editing pauses this long.
	DefaultAutosaveDelay = 1500 * time.Millisecond
)
