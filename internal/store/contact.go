package store

import (
	"regexp"
	"strings"
)

// Contact is a single address book entry.
// ID is assigned by Store and never changes.
type Contact struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	PhoneNumber string `json:"phoneNumber" yaml:"phoneNumber"`
	Email       string `json:"email" yaml:"email"`
	Address     string `json:"address" yaml:"address"`
}

var (
	phoneRe = regexp.MustCompile(`^[0-9 ()+-]+$`)
	emailRe = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// Validate checks the required fields in order and returns the first failure.
// Address is not checked.
func Validate(name, phone, email string) error {
	name, phone, email = strings.TrimSpace(name), strings.TrimSpace(phone), strings.TrimSpace(email)

	if name == "" {
		return &ValidationError{Field: "name", Message: "name cannot be empty"}
	}
	if phone == "" {
		return &ValidationError{Field: "phoneNumber", Message: "phone number cannot be empty"}
	}
	if !phoneRe.MatchString(phone) {
		return &ValidationError{Field: "phoneNumber", Message: "phone number contains invalid characters"}
	}
	if email == "" {
		return &ValidationError{Field: "email", Message: "email cannot be empty"}
	}
	if !emailRe.MatchString(email) {
		return &ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}
