// AgriSahay | 2026
// normalize.go

package account

import (
	"regexp"
	"strings"

	"github.com/agrisahay/identity-backend/internal/core"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

	// Indian mobile numbers: ten digits starting 6-9, optionally carrying
	// the 91 country prefix for a twelve digit form.
	phonePattern = regexp.MustCompile(`^(?:91)?[6-9][0-9]{9}$`)
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizePhone strips spaces, "+" and "-" so "+91 86829 22431" and
// "918682922431" store and look up identically.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '+', '-':
			return -1
		}
		return r
	}, phone)
}

func ValidateUsername(normalized string) error {
	if !usernamePattern.MatchString(normalized) {
		return core.ValidationError(
			"username must be 3-30 characters of lowercase letters, digits, or underscores",
		)
	}
	return nil
}

func ValidatePhone(normalized string) error {
	if !phonePattern.MatchString(normalized) {
		return core.ValidationError(
			"phone must be a valid Indian mobile number",
		)
	}
	return nil
}
