// Package middleware provides HTTP middleware for the Shelfmark API.
package middleware

import (
	"errors"
	"regexp"
	"strings"
)

// Validation errors.
var (
	ErrIDInvalid        = errors.New("id is not a valid identifier")
	ErrUsernameReserved = errors.New("username is reserved")
)

// ReservedUsernames cannot be registered. They collide with system routes
// or invite impersonation.
var ReservedUsernames = map[string]bool{
	// System routes
	"api":     true,
	"admin":   true,
	"healthz": true,
	"readyz":  true,
	"metrics": true,

	// Auth surface
	"login":  true,
	"logout": true,
	"auth":   true,

	// Impersonation bait
	"shelfmark": true,
	"librarian": true,
	"staff":     true,
	"root":      true,
	"system":    true,
	"support":   true,
}

// entityIDPattern matches ULID identifiers (Crockford base32, 26 chars).
var entityIDPattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)

// ValidateEntityID rejects path identifiers that cannot be ULIDs before
// they reach a repository lookup.
func ValidateEntityID(id string) error {
	if !entityIDPattern.MatchString(strings.ToUpper(id)) {
		return ErrIDInvalid
	}
	return nil
}

// ValidateUsernameAllowed checks registration usernames against the
// reserved list, case-insensitively.
func ValidateUsernameAllowed(username string) error {
	if ReservedUsernames[strings.ToLower(username)] {
		return ErrUsernameReserved
	}
	return nil
}
