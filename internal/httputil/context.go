package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const (
	memberIDKey contextKey = "memberID"
	orgIDKey    contextKey = "orgID"
)

// WithMember adds the authenticated member identity to the request context
func WithMember(r *http.Request, memberID, orgID string) *http.Request {
	ctx := context.WithValue(r.Context(), memberIDKey, memberID)
	ctx = context.WithValue(ctx, orgIDKey, orgID)
	return r.WithContext(ctx)
}

// GetMemberID retrieves the member ID from context, returns empty string if not found
func GetMemberID(r *http.Request) string {
	memberID, _ := r.Context().Value(memberIDKey).(string)
	return memberID
}

// GetOrgID retrieves the organization ID from context, returns empty string if not found
func GetOrgID(r *http.Request) string {
	orgID, _ := r.Context().Value(orgIDKey).(string)
	return orgID
}
