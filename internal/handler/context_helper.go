package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/proceso-api/internal/middleware"
	"github.com/noah-isme/proceso-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// roleFromContext returns the caller's role, or nil for anonymous callers
// and unknown roles.
func roleFromContext(c *gin.Context) *models.UserRole {
	claims := claimsFromContext(c)
	if claims == nil || !claims.Role.Valid() {
		return nil
	}
	role := claims.Role
	return &role
}
