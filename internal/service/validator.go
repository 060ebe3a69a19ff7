package service

import (
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/identity-service/internal/domain"
)

const (
	minNameLength     = 2
	minEmailLength    = 2
	minPasswordLength = 6
	maxPasswordLength = 32
)

// ValidateRegistration checks the shape of a sign-up request. Registration
// has no upper bound on password length.
func ValidateRegistration(in domain.RegistrationInput) error {
	if !validEmail(in.Email) ||
		!validName(in.Name) ||
		!validName(in.Surname) ||
		length(in.Password) < minPasswordLength {
		return domain.ErrInvalidInput
	}
	return nil
}

// ValidateLogin requires both credentials to be present.
func ValidateLogin(in domain.LoginInput) error {
	if in.Email == "" || in.Password == "" {
		return domain.ErrInvalidInput
	}
	return nil
}

// ValidateProfileUpdate checks a profile update against the current record.
// Submitting the current name, surname and email unchanged is rejected.
func ValidateProfileUpdate(in domain.ProfileUpdateInput, current *domain.User) error {
	if err := validateProfilePassword(in); err != nil {
		return err
	}
	unchanged := in.Name == current.Name &&
		in.Surname == current.Surname &&
		in.Email == current.Email
	if unchanged || !validEmail(in.Email) || !validName(in.Name) || !validName(in.Surname) {
		return domain.ErrInvalidInput
	}
	return nil
}

func validateProfilePassword(in domain.ProfileUpdateInput) error {
	if !passwordInBounds(in.Password) {
		return domain.ErrInvalidInput
	}
	return nil
}

// validatePasswordChangeBounds and checkPasswordReuse are separate because
// ChangePassword loads the account between them.
func validatePasswordChangeBounds(in domain.PasswordChangeInput) error {
	if !passwordInBounds(in.OldPassword) || !passwordInBounds(in.NewPassword) {
		return domain.ErrInvalidInput
	}
	return nil
}

func checkPasswordReuse(in domain.PasswordChangeInput) error {
	if in.NewPassword == in.OldPassword {
		return domain.ErrPasswordReused
	}
	return nil
}

func validEmail(email string) bool {
	return length(email) >= minEmailLength && strings.Contains(email, "@")
}

func validName(name string) bool {
	return length(name) >= minNameLength
}

func passwordInBounds(password string) bool {
	n := length(password)
	return n >= minPasswordLength && n <= maxPasswordLength
}

// length counts characters rather than bytes.
func length(s string) int {
	return utf8.RuneCountInString(s)
}
