package types

import (
	"regexp"
)

// MaxMessageSize bounds a single inbound frame (64KB).
const MaxMessageSize = 65536

// FUNCTIONAL DISCOVERY: Regex compiled once at package initialization
// because admission validates ids on every connection attempt
var identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidUserID checks if a user ID meets format requirements.
func IsValidUserID(userID string) bool {
	if len(userID) < 1 || len(userID) > 50 {
		return false
	}
	return identifierRegex.MatchString(userID)
}

// IsValidSessionKey checks if a session key meets format requirements.
// Session keys share the identifier alphabet but allow longer values since
// they are often composed from course and term identifiers.
func IsValidSessionKey(key string) bool {
	if len(key) < 1 || len(key) > 100 {
		return false
	}
	return identifierRegex.MatchString(key)
}

// IsValidRole reports whether the credential role is one the session server
// understands.
func IsValidRole(role string) bool {
	return role == RoleTeacher || role == RoleStudent
}
