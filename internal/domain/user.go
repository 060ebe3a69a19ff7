package domain

import "time"

// Role is the single authorization claim carried by an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the persisted identity record. PasswordHash never holds plaintext.
type User struct {
	ID           string
	Email        string
	Name         string
	Surname      string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// View projects the user without its password hash.
func (u *User) View() UserView {
	return UserView{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Surname: u.Surname,
		Role:    u.Role,
	}
}

// CredentialProjection is the reduced view used to authenticate a login.
type CredentialProjection struct {
	Email        string
	PasswordHash string
	Role         Role
}

// UserView is the public profile returned to callers.
type UserView struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Role    Role   `json:"role"`
}

// RegistrationInput carries a sign-up request.
type RegistrationInput struct {
	Email    string
	Name     string
	Surname  string
	Password string
}

// LoginInput carries a login request.
type LoginInput struct {
	Email    string
	Password string
}

// ProfileUpdateInput carries the proposed profile fields together with the
// caller's current password.
type ProfileUpdateInput struct {
	Email    string
	Name     string
	Surname  string
	Password string
}

// PasswordChangeInput carries a password change request.
type PasswordChangeInput struct {
	OldPassword string
	NewPassword string
}
