package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"lapakda/pkg/errors"
)

var markupPattern = regexp.MustCompile(`<[^>]*>`)

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

// sanitizeInput strips markup tags and surrounding whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(markupPattern.ReplaceAllString(s, ""))
}

func IsStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return upper && lower && digit && special
}

// appErr passes AppErrors through and wraps anything else as internal.
func appErr(err error, message string) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	return errors.Internal(message, err)
}
