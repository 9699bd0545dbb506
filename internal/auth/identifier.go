// AgriSahay | 2026
// identifier.go

package auth

import (
	"strings"
)

// Identifier kinds a caller may log in with.
const (
	IdentifierEmail    = "email"
	IdentifierPhone    = "phone"
	IdentifierUsername = "username"
)

// Classify decides what kind of identifier a raw login string is and
// returns its normalized lookup value. The order matters: "@" always wins
// as email, phone detection must run before the username fallback, and a
// digit string shorter than ten characters deliberately falls through to
// username.
func Classify(raw string) (kind, normalized string) {
	trimmed := strings.TrimSpace(raw)

	if strings.Contains(trimmed, "@") {
		return IdentifierEmail, strings.ToLower(trimmed)
	}

	if digits := stripPhone(trimmed); isAllDigits(digits) && len(digits) >= 10 {
		return IdentifierPhone, digits
	}

	return IdentifierUsername, strings.ToLower(trimmed)
}

func stripPhone(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '+', '-':
			return -1
		}
		return r
	}, s)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
