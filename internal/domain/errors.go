package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface keeps the handler layer free of
// type switches over every concrete error.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a referenced document, node, or member does not exist
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input (blank title, bad direction, ...)
	ValidationError struct {
		Message string
	}

	// DocumentArchivedError indicates a mutation was attempted on a terminal document
	DocumentArchivedError struct {
		DocumentID string
	}

	// CycleError indicates a reparent would make a node its own ancestor
	CycleError struct {
		NodeID string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// TransientStoreError wraps a network/backend failure that the caller may retry
	TransientStoreError struct {
		Op  string
		Err error
	}
)

func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }
func (e *DocumentArchivedError) Error() string {
	return "document " + e.DocumentID + " is archived and no longer accepts changes"
}
func (e *CycleError) Error() string {
	return "moving node " + e.NodeID + " would make it its own ancestor"
}
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *TransientStoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}
func (e *TransientStoreError) Unwrap() error { return e.Err }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int         { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int       { return http.StatusBadRequest }
func (e *DocumentArchivedError) StatusCode() int { return http.StatusConflict }
func (e *CycleError) StatusCode() int            { return http.StatusConflict }
func (e *UnauthorizedError) StatusCode() int     { return http.StatusUnauthorized }
func (e *TransientStoreError) StatusCode() int   { return http.StatusServiceUnavailable }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrArchived     = errors.New("document archived")
	ErrCycle        = errors.New("tree cycle")
	ErrTransient    = errors.New("transient store failure")
)

// Is hooks so errors.Is() matches the typed errors against the sentinels.
func (e *NotFoundError) Is(target error) bool         { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool       { return target == ErrValidation }
func (e *DocumentArchivedError) Is(target error) bool { return target == ErrArchived }
func (e *CycleError) Is(target error) bool            { return target == ErrCycle }
func (e *UnauthorizedError) Is(target error) bool     { return target == ErrUnauthorized }
func (e *TransientStoreError) Is(target error) bool   { return target == ErrTransient }

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (document, node, completion)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
