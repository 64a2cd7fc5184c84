package utils

import (
	"errors"
	"regexp"
	"strings"
)

// Usernames are email-shaped and stored lower-cased.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

var (
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidPassword = errors.New("password must be at least 8 characters and include a number")
)

// NormalizeUsername validates that value is email-shaped and returns it
// trimmed and lower-cased. ErrInvalidEmail is returned otherwise.
func NormalizeUsername(value string) (string, error) {
	value = strings.TrimSpace(value)
	if !emailPattern.MatchString(value) {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(value), nil
}

// ValidatePassword enforces the minimum password policy: at least 8
// characters including a digit.
func ValidatePassword(value string) error {
	if len(value) < 8 || !strings.ContainsAny(value, "0123456789") {
		return ErrInvalidPassword
	}
	return nil
}
