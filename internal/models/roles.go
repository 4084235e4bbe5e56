// internal/models/roles.go

package models

// UserRole is the platform-level role of an account
type UserRole string

const (
	RoleStudent   UserRole = "student"
	RoleRecruiter UserRole = "recruiter"
	RoleAdmin     UserRole = "admin"
)

// IsValid reports whether the role is one of the known roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleStudent, RoleRecruiter, RoleAdmin:
		return true
	}
	return false
}

// IsHigherOrEqual compares roles by hierarchy level
func (r UserRole) IsHigherOrEqual(target UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleStudent:   0,
		RoleRecruiter: 1,
		RoleAdmin:     2,
	}

	currentLevel, exists1 := roleHierarchy[r]
	targetLevel, exists2 := roleHierarchy[target]

	if !exists1 || !exists2 {
		return false
	}

	return currentLevel >= targetLevel
}
