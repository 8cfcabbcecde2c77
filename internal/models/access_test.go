package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rolePtr(r UserRole) *UserRole { return &r }

func TestCanAccessEventTruthTable(t *testing.T) {
	roles := map[string]*UserRole{
		"admin":   rolePtr(RoleAdmin),
		"staff":   rolePtr(RoleStaff),
		"faculty": rolePtr(RoleFaculty),
		"student": rolePtr(RoleStudent),
		"nil":     nil,
	}
	expected := map[Visibility]map[string]bool{
		VisibilityInternal:    {"admin": true, "staff": true, "faculty": false, "student": false, "nil": false},
		VisibilityFaculty:     {"admin": true, "staff": true, "faculty": true, "student": false, "nil": false},
		VisibilityEveryone:    {"admin": true, "staff": true, "faculty": true, "student": true, "nil": true},
		Visibility("Unknown"): {"admin": true, "staff": true, "faculty": true, "student": true, "nil": true},
	}

	for visibility, row := range expected {
		for name, want := range row {
			assert.Equalf(t, want, CanAccessEvent(visibility, roles[name]), "visibility=%s role=%s", visibility, name)
		}
	}
}

func TestRolesForVisibility(t *testing.T) {
	assert.Equal(t, []UserRole{RoleAdmin, RoleStaff}, RolesForVisibility(VisibilityInternal))
	assert.Equal(t, []UserRole{RoleAdmin, RoleStaff, RoleFaculty}, RolesForVisibility(VisibilityFaculty))
	assert.Equal(t, AllRoles, RolesForVisibility(VisibilityEveryone))
}

func TestParseUserRole(t *testing.T) {
	role, ok := ParseUserRole(" Faculty ")
	assert.True(t, ok)
	assert.Equal(t, RoleFaculty, role)

	_, ok = ParseUserRole("superadmin")
	assert.False(t, ok)
}

func TestJWTClaimsPrincipal(t *testing.T) {
	claims := &JWTClaims{}
	claims.Subject = "sub-1"
	assert.Equal(t, "sub-1", claims.Principal())

	claims.UserID = "user-1"
	assert.Equal(t, "user-1", claims.Principal())

	var nilClaims *JWTClaims
	assert.Empty(t, nilClaims.Principal())
}
