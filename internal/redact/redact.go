// Package redact removes sensitive information from strings before they are
// logged or returned in error responses. It targets the secrets this service
// actually handles: database connection strings, bearer tokens, password
// material and email addresses.
package redact

import "regexp"

// Placeholders substituted for redacted material.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
)

var (
	// Database connection strings with inline credentials.
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`)

	// JWT tokens: three base64url segments, the first two starting with the
	// standard {"... header/payload prefix.
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// Password or secret key-value fragments in error text.
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd|secret)([=:\s]['"]?|['"]?[=:])[^'"&\s]{3,}`)

	// bcrypt hashes must never reach logs.
	bcryptHashRegex = regexp.MustCompile(`\$2[aby]\$\d{2}\$[./A-Za-z0-9]{53}`)

	// Email addresses are PII.
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// String returns the input with all recognized sensitive fragments replaced
// by placeholders.
func String(input string) string {
	if input == "" {
		return input
	}

	out := dbConnRegex.ReplaceAllString(input, "${1}://"+RedactedCredentialPlaceholder+"@")
	out = jwtTokenRegex.ReplaceAllString(out, RedactionPlaceholder)
	out = bcryptHashRegex.ReplaceAllString(out, RedactedCredentialPlaceholder)
	out = passwordRegex.ReplaceAllString(out, "${1}${2}"+RedactedCredentialPlaceholder)
	out = emailRegex.ReplaceAllString(out, RedactedEmailPlaceholder)
	return out
}

// Error returns the redacted message of err, or an empty string for nil.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
