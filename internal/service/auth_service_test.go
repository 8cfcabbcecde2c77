package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proceso-api/internal/models"
	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims *models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() *models.JWTClaims {
	return &models.JWTClaims{
		Email: "staff@example.edu",
		Role:  "Staff",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "proceso-auth",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "secret", Issuer: "proceso-auth"}, nil)

	claims, err := svc.ValidateToken(signToken(t, "secret", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Principal())
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestValidateTokenRejectsBadSignatureAndIssuer(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "secret", Issuer: "proceso-auth"}, nil)

	_, err := svc.ValidateToken(signToken(t, "other", validClaims()))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	claims := validClaims()
	claims.Issuer = "someone-else"
	_, err = svc.ValidateToken(signToken(t, "secret", claims))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestValidateTokenRejectsExpiredAndUnknownRole(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "secret"}, nil)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err := svc.ValidateToken(signToken(t, "secret", expired))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	unknown := validClaims()
	unknown.Role = "superuser"
	_, err = svc.ValidateToken(signToken(t, "secret", unknown))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
