package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"CareOnboard/internal/auth"
	"CareOnboard/pkg/logger"
)

// ProfileCache 空值保护缓存，见 cache.ProtectedCache
type ProfileCache interface {
	Set(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string, dest any) (hit bool, empty bool, err error)
	Delete(ctx context.Context, key string) error
}

// CachedStaffStore 旁路缓存，写入后删缓存
type CachedStaffStore struct {
	next  auth.UserStore
	cache ProfileCache
}

func NewCachedStaffStore(next auth.UserStore, cache ProfileCache) *CachedStaffStore {
	return &CachedStaffStore{next: next, cache: cache}
}

func (s *CachedStaffStore) Exists(ctx context.Context, uid string) (bool, error) {
	var u auth.User
	hit, empty, err := s.cache.Get(ctx, uid, &u)
	if err == nil && hit {
		return !empty, nil
	}
	return s.next.Exists(ctx, uid)
}

func (s *CachedStaffStore) Load(ctx context.Context, uid string) (*auth.User, error) {
	var u auth.User
	hit, empty, err := s.cache.Get(ctx, uid, &u)
	if err != nil {
		logger.Logger.Warn("Staff cache read failed", zap.String("uid", uid), zap.Error(err))
	} else if hit {
		if empty {
			return nil, auth.ErrUserNotFound
		}
		return &u, nil
	}

	user, err := s.next.Load(ctx, uid)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		_ = s.cache.Set(ctx, uid, nil)
		return nil, err
	case err != nil:
		return nil, err
	}

	if err := s.cache.Set(ctx, uid, user); err != nil {
		logger.Logger.Warn("Staff cache write failed", zap.String("uid", uid), zap.Error(err))
	}
	return user, nil
}

func (s *CachedStaffStore) Save(ctx context.Context, user *auth.User) error {
	if err := s.next.Save(ctx, user); err != nil {
		return err
	}
	return s.Invalidate(ctx, user.UID)
}

func (s *CachedStaffStore) Invalidate(ctx context.Context, uid string) error {
	return s.cache.Delete(ctx, uid)
}
