package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the payload of access tokens issued by the identity
// provider. Only validation happens in this service.
type JWTClaims struct {
	UserID string   `json:"user_id,omitempty"`
	Email  string   `json:"email"`
	Role   UserRole `json:"user_role"`
	jwt.RegisteredClaims
}

// Principal returns the caller's user id, falling back to the subject claim.
func (c *JWTClaims) Principal() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}
