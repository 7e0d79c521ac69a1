// Package validate checks user-supplied identifiers before they reach a
// subprocess or a generated SQL statement. Anything that fails here must be
// rejected outright; callers never "fix up" an invalid value.
package validate

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
)

const (
	maxDatabaseNameLen = 64
	minUsernameLen     = 3
	maxUsernameLen     = 32
	maxHostnameLen     = 253
	minPasswordLen     = 8
)

var (
	identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	hostnamePattern   = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?(\.[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?)*$`)
	upperPattern      = regexp.MustCompile(`[A-Z]`)
	lowerPattern      = regexp.MustCompile(`[a-z]`)
	digitPattern      = regexp.MustCompile(`[0-9]`)
)

// DatabaseName accepts letters, digits and underscores, not starting with a
// digit, at most 64 characters. Hyphens are deliberately rejected.
func DatabaseName(name string) error {
	if name == "" {
		return errors.New("validate: database name is empty")
	}
	if len(name) > maxDatabaseNameLen {
		return fmt.Errorf("validate: database name exceeds %d characters", maxDatabaseNameLen)
	}
	if !identifierPattern.MatchString(name) {
		return errors.New("validate: database name may contain only letters, digits and underscores, and must not start with a digit")
	}
	return nil
}

// Username applies the same character rules as DatabaseName with a 3-32
// character length window.
func Username(name string) error {
	if name == "" {
		return errors.New("validate: username is empty")
	}
	if len(name) < minUsernameLen {
		return fmt.Errorf("validate: username must be at least %d characters", minUsernameLen)
	}
	if len(name) > maxUsernameLen {
		return fmt.Errorf("validate: username exceeds %d characters", maxUsernameLen)
	}
	if !identifierPattern.MatchString(name) {
		return errors.New("validate: username may contain only letters, digits and underscores, and must not start with a digit")
	}
	return nil
}

// Password requires a minimum length plus at least one upper-case letter,
// one lower-case letter and one digit.
func Password(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("validate: password must be at least %d characters", minPasswordLen)
	}
	if !upperPattern.MatchString(password) {
		return errors.New("validate: password needs at least one upper-case letter")
	}
	if !lowerPattern.MatchString(password) {
		return errors.New("validate: password needs at least one lower-case letter")
	}
	if !digitPattern.MatchString(password) {
		return errors.New("validate: password needs at least one digit")
	}
	return nil
}

// Port accepts 1-65535.
func Port(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("validate: port %d outside 1-65535", port)
	}
	return nil
}

// Hostname validates an RFC 1123 style hostname: dot-separated labels of at
// most 63 characters, no leading or trailing hyphens, 253 characters total.
func Hostname(name string) error {
	if name == "" {
		return errors.New("validate: hostname is empty")
	}
	if len(name) > maxHostnameLen {
		return fmt.Errorf("validate: hostname exceeds %d characters", maxHostnameLen)
	}
	if !hostnamePattern.MatchString(name) {
		return errors.New("validate: invalid hostname")
	}
	return nil
}

// AbsolutePath requires a non-empty absolute filesystem path.
func AbsolutePath(path string) error {
	if path == "" {
		return errors.New("validate: path is empty")
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("validate: path %q is not absolute", path)
	}
	return nil
}
