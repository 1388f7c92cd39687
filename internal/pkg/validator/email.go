package validator

import (
	"errors"
	"net/mail"
	"strings"
)

// ValidateEmail checks that an optional contact email is well formed.
// Empty emails are allowed; contacts are frequently phone-only.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email format")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[1] == "" {
		return errors.New("invalid email domain")
	}

	return nil
}
