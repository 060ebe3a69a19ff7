package repository

import "errors"

var (
	// ErrNotFound indicates a user record was not located.
	ErrNotFound = errors.New("repository: not found")
	// ErrEmailConflict indicates the store's unique email constraint rejected a write.
	ErrEmailConflict = errors.New("repository: email already exists")
)
