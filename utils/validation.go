// utils/validation.go
package utils

import (
	"regexp"
	"unicode/utf8"
)

var nonDigits = regexp.MustCompile(`\D`)

// DigitsOnly strips every non-digit character.
func DigitsOnly(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

// WithCountryCode strips the number down to digits and prefixes countryCode.
func WithCountryCode(phone, countryCode string) string {
	return countryCode + DigitsOnly(phone)
}

// Truncate cuts s to at most max characters.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
