package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/observability"
	"github.com/spec-kit/identity-service/internal/repository"
	apperrors "github.com/spec-kit/identity-service/pkg/util/errorutil"
)

// TokenIssuer signs a bearer token bound to an email and role.
type TokenIssuer interface {
	Sign(email string, role domain.Role) (string, time.Time, error)
}

// IdentityService coordinates registration, login and profile flows.
type IdentityService struct {
	users   repository.UserStore
	hasher  auth.Hasher
	tokens  TokenIssuer
	logger  *zap.Logger
	metrics *observability.Metrics
}

// IdentityDependencies encapsulates collaborators for the identity service.
type IdentityDependencies struct {
	UserStore repository.UserStore
	Hasher    auth.Hasher
	Tokens    TokenIssuer
	Logger    *zap.Logger
	Metrics   *observability.Metrics
}

// NewIdentityService builds the service.
func NewIdentityService(deps IdentityDependencies) *IdentityService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{
		users:   deps.UserStore,
		hasher:  deps.Hasher,
		tokens:  deps.Tokens,
		logger:  logger,
		metrics: deps.Metrics,
	}
}

// Register creates a new account. The email pre-check is best effort; the
// store's unique constraint decides concurrent registrations.
func (s *IdentityService) Register(ctx context.Context, in domain.RegistrationInput) (view *domain.UserView, err error) {
	defer func() { s.metrics.RecordOperation("register", err) }()

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, unexpected("register: lookup email", err)
	}

	if err := ValidateRegistration(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, unexpected("register: hash password", err)
	}

	user := &domain.User{
		Email:        in.Email,
		Name:         in.Name,
		Surname:      in.Surname,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailConflict) {
			return nil, domain.ErrEmailTaken
		}
		return nil, unexpected("register: save user", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("email", user.Email))
	registered := user.View()
	return &registered, nil
}

// Login verifies credentials and issues a token for the account.
func (s *IdentityService) Login(ctx context.Context, in domain.LoginInput) (result *domain.LoginResult, err error) {
	defer func() { s.metrics.RecordOperation("login", err) }()

	if err := ValidateLogin(in); err != nil {
		return nil, err
	}

	creds, err := s.users.FindCredentialProjection(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrEmailNotFound
		}
		return nil, unexpected("login: load credentials", err)
	}

	if err := s.VerifyOrFail(in.Password, creds.PasswordHash); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Sign(creds.Email, creds.Role)
	if err != nil {
		return nil, unexpected("login: sign token", err)
	}

	view, err := s.users.FindUserView(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, unexpected("login: load profile", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", view.ID))
	return &domain.LoginResult{Token: token, ExpiresAt: expiresAt, User: *view}, nil
}

// GetCurrentUser returns the profile of the authenticated caller.
func (s *IdentityService) GetCurrentUser(ctx context.Context, identity domain.Identity) (view *domain.UserView, err error) {
	defer func() { s.metrics.RecordOperation("get_current_user", err) }()

	view, err = s.users.FindUserView(ctx, identity.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrEmailNotFound
		}
		return nil, unexpected("get current user", err)
	}
	return view, nil
}

// GetUserByID returns the profile stored under id.
func (s *IdentityService) GetUserByID(ctx context.Context, id string) (view *domain.UserView, err error) {
	defer func() { s.metrics.RecordOperation("get_user_by_id", err) }()

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, unexpected("get user by id", err)
	}
	found := user.View()
	return &found, nil
}

// UpdateProfile changes name, surname and email after re-authenticating the
// caller with their current password. When the email changes a new token is
// issued, since the old one names the previous email.
func (s *IdentityService) UpdateProfile(ctx context.Context, identity domain.Identity, in domain.ProfileUpdateInput) (result *domain.ProfileUpdateResult, err error) {
	defer func() { s.metrics.RecordOperation("update_profile", err) }()

	if err := validateProfilePassword(in); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	if err := s.VerifyOrFail(in.Password, user.PasswordHash); err != nil {
		return nil, err
	}

	if err := ValidateProfileUpdate(in, user); err != nil {
		return nil, err
	}

	emailChanged := in.Email != user.Email
	if emailChanged {
		if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
			return nil, domain.ErrEmailTaken
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, unexpected("update profile: lookup email", err)
		}
	}

	user.Name = in.Name
	user.Surname = in.Surname
	user.Email = in.Email
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailConflict) {
			return nil, domain.ErrEmailTaken
		}
		return nil, unexpected("update profile: save user", err)
	}

	result = &domain.ProfileUpdateResult{User: user.View()}
	if emailChanged {
		result.Token, result.ExpiresAt, err = s.tokens.Sign(user.Email, user.Role)
		if err != nil {
			return nil, unexpected("update profile: sign token", err)
		}
	}

	s.logger.Info("profile updated", zap.String("user_id", user.ID), zap.Bool("email_changed", emailChanged))
	return result, nil
}

// ChangePassword replaces the caller's password. Reuse is rejected before the
// old password is verified.
func (s *IdentityService) ChangePassword(ctx context.Context, identity domain.Identity, in domain.PasswordChangeInput) (err error) {
	defer func() { s.metrics.RecordOperation("change_password", err) }()

	if err := validatePasswordChangeBounds(in); err != nil {
		return err
	}

	user, err := s.loadUser(ctx, identity)
	if err != nil {
		return err
	}

	if err := checkPasswordReuse(in); err != nil {
		return err
	}

	if err := s.VerifyOrFail(in.OldPassword, user.PasswordHash); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return unexpected("change password: hash password", err)
	}
	user.PasswordHash = hash
	if err := s.users.Save(ctx, user); err != nil {
		return unexpected("change password: save user", err)
	}

	s.logger.Info("password changed", zap.String("user_id", user.ID))
	return nil
}

// VerifyOrFail returns ErrInvalidPassword unless password matches hash. Every
// flow that authenticates a caller goes through here.
func (s *IdentityService) VerifyOrFail(password, hash string) error {
	ok, err := s.hasher.Verify(password, hash)
	if err != nil {
		return unexpected("verify password", err)
	}
	if !ok {
		return domain.ErrInvalidPassword
	}
	return nil
}

func (s *IdentityService) loadUser(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, identity.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, unexpected("load user", err)
	}
	return user, nil
}

func unexpected(op string, err error) error {
	return apperrors.NewInternalError(fmt.Errorf("%s: %w", op, err))
}
