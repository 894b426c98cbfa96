// Package redact strips sensitive material from strings before they reach
// logs or error responses: connection strings, credentials, bearer tokens,
// and email addresses.
package redact

import "regexp"

// Redaction placeholders.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
)

var (
	// Connection strings with inline credentials, e.g. postgres://user:pw@host.
	connStringRegex = regexp.MustCompile(`(?i)(postgres|postgresql|redis|mysql)://[^@\s]+@`)

	// Password-ish key/value pairs.
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|secret)([=:\s]['"]?)[^'"&\s]{3,}`)

	// Three-part base64url JWTs.
	jwtRegex = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)

	// Email addresses.
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// String replaces sensitive fragments of s with placeholders.
func String(s string) string {
	if s == "" {
		return s
	}
	s = connStringRegex.ReplaceAllString(s, CredentialPlaceholder+"@")
	s = passwordRegex.ReplaceAllString(s, "$1$2"+CredentialPlaceholder)
	s = jwtRegex.ReplaceAllString(s, TokenPlaceholder)
	s = emailRegex.ReplaceAllString(s, EmailPlaceholder)
	return s
}

// Error redacts an error's message. Returns the empty string for nil.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
