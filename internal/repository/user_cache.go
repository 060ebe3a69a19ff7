package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/domain"
)

const (
	prefixUserView    = "identity:user_view:"
	prefixUserViewGen = "identity:user_view_gen:"
)

// CachedUserStore serves FindUserView from Redis and falls back to the
// wrapped store. Redis failures are logged and never surface to callers.
//
// Every Save bumps a per-email generation key. A reader fills the cache under
// WATCH on that key, so a Save that lands between the reader's load and its
// write aborts the write instead of leaving a stale view behind.
type CachedUserStore struct {
	UserStore
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserStore wraps store with a read-through profile cache.
func NewCachedUserStore(store UserStore, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *CachedUserStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedUserStore{UserStore: store, client: client, ttl: ttl, logger: logger}
}

func (s *CachedUserStore) FindUserView(ctx context.Context, email string) (*domain.UserView, error) {
	key := prefixUserView + email

	raw, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var view domain.UserView
		if jsonErr := json.Unmarshal(raw, &view); jsonErr == nil {
			return &view, nil
		}
		s.logger.Warn("discarding corrupt cached user view", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("user view cache read failed", zap.Error(err))
	}

	var (
		view     *domain.UserView
		storeErr error
	)
	watchErr := s.client.Watch(ctx, func(tx *redis.Tx) error {
		view, storeErr = s.UserStore.FindUserView(ctx, email)
		if storeErr != nil {
			return nil
		}
		payload, err := json.Marshal(view)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}, prefixUserViewGen+email)

	if storeErr != nil {
		return nil, storeErr
	}
	switch {
	case watchErr == nil:
	case errors.Is(watchErr, redis.TxFailedErr):
		s.logger.Debug("user view changed during load; not cached", zap.String("key", key))
	default:
		s.logger.Warn("user view cache write failed", zap.Error(watchErr))
	}

	if view == nil {
		// WATCH never ran, e.g. Redis is unreachable.
		return s.UserStore.FindUserView(ctx, email)
	}
	return view, nil
}

// Save persists through the wrapped store, then bumps the generation and
// evicts the cached profile for both the previous and the current email.
func (s *CachedUserStore) Save(ctx context.Context, user *domain.User) error {
	emails := []string{user.Email}
	if user.ID != "" {
		prev, err := s.UserStore.FindByID(ctx, user.ID)
		if err == nil && prev.Email != user.Email {
			emails = append(emails, prev.Email)
		}
	}

	if err := s.UserStore.Save(ctx, user); err != nil {
		return err
	}

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, email := range emails {
			pipe.Incr(ctx, prefixUserViewGen+email)
			pipe.Expire(ctx, prefixUserViewGen+email, 2*s.ttl)
			pipe.Del(ctx, prefixUserView+email)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("user view cache eviction failed", zap.Error(err), zap.Strings("emails", emails))
	}
	return nil
}

var _ UserStore = (*CachedUserStore)(nil)
