// Package blob abstracts the file-storage collaborator that holds uploaded
// external documents. The engine only ever stores the opaque locator a Put
// returns; resolving a locator to a retrievable URL happens on demand.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a locator does not resolve to an object.
var ErrNotFound = errors.New("blob not found")

// PutOptions carries optional object metadata.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored object.
type Info struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
}

// Store is the storage collaborator contract.
type Store interface {
	// Put uploads an object under key and returns its info
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)

	// Get opens an object for reading
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)

	// Delete removes an object; deleting a missing object is not an error
	Delete(ctx context.Context, key string) error

	// ResolveURL returns a time-limited retrievable URL for the object
	ResolveURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
