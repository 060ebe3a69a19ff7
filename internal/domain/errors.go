package domain

import (
	"net/http"

	apperrors "github.com/spec-kit/identity-service/pkg/util/errorutil"
)

// Failure kinds raised by the identity flows.
var (
	ErrInvalidInput    = apperrors.NewDomainError("INVALID_INPUT", "Invalid input!", http.StatusBadRequest, nil)
	ErrEmailTaken      = apperrors.NewDomainError("EMAIL_TAKEN", "Email already taken!", http.StatusBadRequest, nil)
	ErrEmailNotFound   = apperrors.NewDomainError("EMAIL_NOT_FOUND", "Email don't exist!", http.StatusBadRequest, nil)
	ErrInvalidPassword = apperrors.NewDomainError("INVALID_PASSWORD", "Invalid password!", http.StatusBadRequest, nil)
	ErrPasswordReused  = apperrors.NewDomainError("PASSWORD_REUSED", "Password cannot be the same!", http.StatusBadRequest, nil)
	ErrUserNotFound    = apperrors.NewDomainError("USER_NOT_FOUND", "User not found!", http.StatusInternalServerError, nil)
)
