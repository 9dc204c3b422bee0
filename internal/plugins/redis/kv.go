package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// StateKV backs the client read-state storage contract with flat redis keys.
// Values live until overwritten, like localStorage items.
type StateKV struct {
	rdb    *redis.Client
	prefix string
}

func NewStateKV(rdb *redis.Client, prefix string) *StateKV {
	return &StateKV{rdb: rdb, prefix: prefix}
}

func (s *StateKV) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, s.prefix+":"+key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *StateKV) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.prefix+":"+key, value, 0).Err()
}
