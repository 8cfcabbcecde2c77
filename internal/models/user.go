package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// UserRole is the closed set of roles known to the access gate.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStaff   UserRole = "staff"
	RoleFaculty UserRole = "faculty"
	RoleStudent UserRole = "student"
)

// AllRoles lists every role in privilege order.
var AllRoles = []UserRole{RoleAdmin, RoleStaff, RoleFaculty, RoleStudent}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleFaculty, RoleStudent:
		return true
	default:
		return false
	}
}

// ParseUserRole normalises a raw claim or column value into a role.
func ParseUserRole(raw string) (UserRole, bool) {
	role := UserRole(strings.ToLower(strings.TrimSpace(raw)))
	return role, role.Valid()
}

// User represents an account stored in the users table.
type User struct {
	ID         string         `db:"id" json:"id"`
	Email      string         `db:"email" json:"email"`
	Name       string         `db:"name" json:"name"`
	Role       UserRole       `db:"role" json:"role"`
	Department *string        `db:"department" json:"department,omitempty"`
	OtherRoles pq.StringArray `db:"other_roles" json:"other_roles"`
	Active     bool           `db:"active" json:"active"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
