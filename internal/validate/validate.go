package validate

import (
	"net/mail"
	"regexp"

	"github.com/safevault/safevault/internal/sanitize"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// IsValidEmail reports whether email parses as a single fully-qualified
// address and round-trips unchanged under canonicalization. Display names,
// comments and address lists are rejected.
func IsValidEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == email
}

// UsernameAndEmail sanitizes both fields, then decides acceptability.
// The username check runs on the sanitized value, so a username made
// entirely of characters the sanitizer destroys becomes invalid instead
// of silently empty. Pure, no side effects.
func UsernameAndEmail(username, email string) (sanitizedUsername, sanitizedEmail string, valid bool) {
	sanitizedUsername = sanitize.Sanitize(username)
	sanitizedEmail = sanitize.Sanitize(email)

	usernameValid := usernameRe.MatchString(sanitizedUsername)
	emailValid := IsValidEmail(sanitizedEmail)

	return sanitizedUsername, sanitizedEmail, usernameValid && emailValid
}
