package utils

import (
	"regexp"
	"strings"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	nonDigitRegex = regexp.MustCompile(`\D`)
)

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	return nonDigitRegex.ReplaceAllString(phone, "")
}

// ValidatePhone checks a normalized (digits-only) phone number.
func ValidatePhone(phone string) bool {
	return len(phone) >= 7 && len(phone) <= 15
}

// ValidatePassword enforces the minimum password policy.
func ValidatePassword(password string) bool {
	return len(password) >= 8 && len(password) <= 100
}
