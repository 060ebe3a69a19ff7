package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/dto"
	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/service"
	apperrors "github.com/spec-kit/identity-service/pkg/util/errorutil"
)

// UsersHandler exposes account endpoints.
type UsersHandler struct {
	identity *service.IdentityService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(identityService *service.IdentityService) *UsersHandler {
	return &UsersHandler{identity: identityService}
}

// Register handles POST /register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrInvalidInput
	}

	if _, err := h.identity.Register(c.UserContext(), req.ToInput()); err != nil {
		if isInternal(err) {
			return apperrors.WithMessage(err, "User cannot be registered!")
		}
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.MessageResponse{Message: "Successfully created!"})
}

// Login handles POST /login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrInvalidInput
	}

	result, err := h.identity.Login(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}

	return c.JSON(dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt, User: result.User})
}

// Me handles GET /user.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	view, err := h.identity.GetCurrentUser(c.UserContext(), identity)
	if err != nil {
		if errors.Is(err, domain.ErrEmailNotFound) {
			return apperrors.WithMessage(err, "Bad request")
		}
		return err
	}
	return c.JSON(view)
}

// Update handles PATCH /userPatch.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrInvalidInput
	}

	result, err := h.identity.UpdateProfile(c.UserContext(), identity, req.ToInput())
	if err != nil {
		return err
	}

	resp := dto.UserUpdateResponse{Message: "Successfully updated!", User: result.User}
	if result.Token != "" {
		resp.Token = result.Token
		resp.ExpiresAt = &result.ExpiresAt
	}
	return c.JSON(resp)
}

// ChangePassword handles PATCH /password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.WithMessage(domain.ErrInvalidInput, "Password too short or too long!")
	}

	if err := h.identity.ChangePassword(c.UserContext(), identity, req.ToInput()); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return apperrors.WithMessage(err, "Password too short or too long!")
		case errors.Is(err, domain.ErrInvalidPassword):
			return apperrors.WithMessage(err, "Password don't match!")
		case isInternal(err):
			return apperrors.WithMessage(err, "Password cannot be changed!")
		}
		return err
	}

	return c.JSON(dto.MessageResponse{Message: "Successfully changed!"})
}

func isInternal(err error) bool {
	return apperrors.ToDomainError(err).HTTPStatus >= http.StatusInternalServerError
}
