package domain

import "time"

// Identity is the authenticated caller as resolved by the transport layer.
type Identity struct {
	Email string
	Role  Role
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      UserView
}

// ProfileUpdateResult is returned by a successful profile update. Token is
// set only when the email changed.
type ProfileUpdateResult struct {
	User      UserView
	Token     string
	ExpiresAt time.Time
}
