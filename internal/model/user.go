// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// Role constants for user authorization.
const (
	RoleReader    = "reader"
	RoleLibrarian = "librarian"
	RoleAdmin     = "admin"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleReader, RoleLibrarian, RoleAdmin}

// IsValidRole checks if a role value is recognized.
func IsValidRole(role string) bool {
	return slices.Contains(ValidRoles, role)
}

// User represents a library account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at"`
}

// IsLibrarian returns true for staff accounts. Admin implies librarian.
func (u *User) IsLibrarian() bool {
	return u.Role == RoleLibrarian || u.Role == RoleAdmin
}

// AuthContext carries the authenticated session through request context.
type AuthContext struct {
	UserID   string
	Username string
	Role     string
}

// HasRole checks if the session satisfies a role requirement.
// Admin role implies all other roles.
func (a *AuthContext) HasRole(role string) bool {
	if a.Role == RoleAdmin {
		return true
	}
	return a.Role == role
}
