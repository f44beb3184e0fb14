package translate

import (
	"regexp"
	"strings"
	"unicode"
)

var idLike = regexp.MustCompile(`^[A-Za-z0-9\-_/]{6,}$`)

// IsNumericLike reports whether s holds only digits, whitespace,
// punctuation and symbols, such as dates, amounts and phone numbers.
func IsNumericLike(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		return false
	}
	return true
}

// IsIDLike reports whether s is a single token of at least six ASCII
// letters, digits, dashes, underscores or slashes, such as a registration
// or serial number.
func IsIDLike(s string) bool {
	return idLike.MatchString(s)
}

// Translatable reports whether s should be sent for translation.
func Translatable(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	return !IsNumericLike(s) && !IsIDLike(s)
}
