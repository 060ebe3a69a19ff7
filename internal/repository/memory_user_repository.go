package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/identity-service/internal/domain"
)

// MemoryUserStore keeps users in process memory. It enforces email
// uniqueness under its own lock, like the Postgres unique index.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryUserStore creates an empty store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	user := s.byID[id]
	return &user, nil
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryUserStore) FindCredentialProjection(ctx context.Context, email string) (*domain.CredentialProjection, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &domain.CredentialProjection{Email: user.Email, PasswordHash: user.PasswordHash, Role: user.Role}, nil
}

func (s *MemoryUserStore) FindUserView(ctx context.Context, email string) (*domain.UserView, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	view := user.View()
	return &view, nil
}

func (s *MemoryUserStore) Save(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, taken := s.byEmail[user.Email]; taken && owner != user.ID {
		return ErrEmailConflict
	}

	now := s.now()
	if user.ID == "" {
		user.ID = uuid.NewString()
		user.CreatedAt = now
	} else {
		prev, ok := s.byID[user.ID]
		if !ok {
			return ErrNotFound
		}
		if prev.Email != user.Email {
			delete(s.byEmail, prev.Email)
		}
	}
	user.UpdatedAt = now

	s.byID[user.ID] = *user
	s.byEmail[user.Email] = user.ID
	return nil
}

var _ UserStore = (*MemoryUserStore)(nil)
