package cache

import (
	"context"
	"errors"
	"time"

	ri "github.com/redis/go-redis/v9"

	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/storage/redis"
)

// 引导会话快照：cob:wizard:{sessionID}
const (
	wizardPrefix = "wizard"
)

// WizardSessionStore 会话快照的原始 JSON 存取，过期即视为会话结束
type WizardSessionStore struct{}

func NewWizardSessionStore() *WizardSessionStore {
	return &WizardSessionStore{}
}

func (s *WizardSessionStore) Save(ctx context.Context, sessionID string, data []byte, ttl time.Duration) error {
	return redis.Client().Set(ctx, redis.Key(wizardPrefix, sessionID), data, ttl).Err()
}

func (s *WizardSessionStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := redis.Client().Get(ctx, redis.Key(wizardPrefix, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, ri.Nil) {
			return nil, pkgerrors.SessionNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *WizardSessionStore) Delete(ctx context.Context, sessionID string) error {
	return redis.Client().Del(ctx, redis.Key(wizardPrefix, sessionID)).Err()
}
