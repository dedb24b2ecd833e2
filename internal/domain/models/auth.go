package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// MemberClaims are the JWT claims the identity provider issues for console
// members. The engine only consumes identity and organization scope; it does
// not evaluate permissions itself.
type MemberClaims struct {
	jwt.RegisteredClaims
	OrgID string `json:"org_id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// MemberID returns the member identifier (the sub claim).
func (c *MemberClaims) MemberID() string {
	return c.Subject
}
