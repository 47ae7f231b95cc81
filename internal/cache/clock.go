package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	ri "github.com/redis/go-redis/v9"

	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/storage/redis"
)

// 上班打卡状态：cob:clock:{uid}，值为上班时间的 unix 秒
// 不设过期，下班打卡时删除
const (
	clockPrefix = "clock"
)

type ClockStore struct{}

func NewClockStore() *ClockStore {
	return &ClockStore{}
}

// ClockIn 已在上班状态时返回 AlreadyClockedIn
func (s *ClockStore) ClockIn(ctx context.Context, uid string, at time.Time) error {
	ok, err := redis.Client().SetNX(ctx, redis.Key(clockPrefix, uid), at.Unix(), 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.AlreadyClockedIn
	}
	return nil
}

// ClockOut 返回本次上班时间
func (s *ClockStore) ClockOut(ctx context.Context, uid string) (time.Time, error) {
	val, err := redis.Client().GetDel(ctx, redis.Key(clockPrefix, uid)).Result()
	if err != nil {
		if errors.Is(err, ri.Nil) {
			return time.Time{}, pkgerrors.NotClockedIn
		}
		return time.Time{}, err
	}
	return parseUnix(val)
}

// Since 未上班时返回零值与 false
func (s *ClockStore) Since(ctx context.Context, uid string) (time.Time, bool, error) {
	val, err := redis.Client().Get(ctx, redis.Key(clockPrefix, uid)).Result()
	if err != nil {
		if errors.Is(err, ri.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	at, err := parseUnix(val)
	return at, err == nil, err
}

func parseUnix(val string) (time.Time, error) {
	sec, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0), nil
}
