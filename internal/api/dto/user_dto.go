package dto

import (
	"time"

	"github.com/spec-kit/identity-service/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserUpdateRequest payload for profile changes. Password is the current one.
type UserUpdateRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Password string `json:"password"`
}

// PasswordChangeRequest payload for password changes.
type PasswordChangeRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      domain.UserView `json:"user"`
}

// UserUpdateResponse reports the updated profile and, after an email change,
// the replacement token.
type UserUpdateResponse struct {
	Message   string          `json:"message"`
	User      domain.UserView `json:"user"`
	Token     string          `json:"token,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

func (r UserRegisterRequest) ToInput() domain.RegistrationInput {
	return domain.RegistrationInput{Email: r.Email, Name: r.Name, Surname: r.Surname, Password: r.Password}
}

func (r UserLoginRequest) ToInput() domain.LoginInput {
	return domain.LoginInput{Email: r.Email, Password: r.Password}
}

func (r UserUpdateRequest) ToInput() domain.ProfileUpdateInput {
	return domain.ProfileUpdateInput{Email: r.Email, Name: r.Name, Surname: r.Surname, Password: r.Password}
}

func (r PasswordChangeRequest) ToInput() domain.PasswordChangeInput {
	return domain.PasswordChangeInput{OldPassword: r.OldPassword, NewPassword: r.NewPassword}
}
