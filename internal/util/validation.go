package util

import (
	"errors"
	"regexp"
)

// uuidPattern matches the canonical lowercase hex UUID form
var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValidUUID reports whether s is a canonical lowercase UUID string.
// Uppercase hex is rejected so ids match the text primary keys exactly.
func IsValidUUID(s string) bool {
	return uuidPattern.MatchString(s)
}

// ValidateUsername checks username format: 3-30 chars, alphanumeric and underscores
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username must be 3-30 characters, letters, numbers, and underscores only")
	}
	return nil
}

// ValidateEmail checks basic email shape
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return errors.New("invalid email address")
	}
	return nil
}

// ValidateTags checks a question tag list: at most 5 tags, each 1-30 chars
func ValidateTags(tags []string) error {
	if len(tags) > 5 {
		return errors.New("too many tags (max 5)")
	}
	for _, t := range tags {
		if t == "" {
			return errors.New("tags cannot be empty")
		}
		if len(t) > 30 {
			return errors.New("tag too long (max 30 characters)")
		}
	}
	return nil
}
