package models

// CanAccessEvent reports whether a caller holding role may read a record
// with the given visibility. A nil role is an anonymous caller.
func CanAccessEvent(visibility Visibility, role *UserRole) bool {
	switch visibility {
	case VisibilityInternal:
		return hasRole(role, RoleAdmin, RoleStaff)
	case VisibilityFaculty:
		return hasRole(role, RoleAdmin, RoleStaff, RoleFaculty)
	case VisibilityEveryone:
		return true
	default:
		return true
	}
}

// RolesForVisibility lists the roles allowed to read a record with the
// given visibility.
func RolesForVisibility(visibility Visibility) []UserRole {
	out := make([]UserRole, 0, len(AllRoles))
	for _, role := range AllRoles {
		role := role
		if CanAccessEvent(visibility, &role) {
			out = append(out, role)
		}
	}
	return out
}

func hasRole(role *UserRole, allowed ...UserRole) bool {
	if role == nil {
		return false
	}
	for _, candidate := range allowed {
		if *role == candidate {
			return true
		}
	}
	return false
}
