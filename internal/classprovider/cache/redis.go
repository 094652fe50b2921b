// internal/classprovider/cache/redis.go
// Redis-backed checksum Store — lets several processor instances (e.g. a
// build farm running one classforge process per module) share a single
// up-to-date check against one namespaced Redis hash.
package cache

import (
	"context"

	"github.com/nodeforge/classforge/internal/logging"
	"github.com/redis/go-redis/v9"
)

const redisHashKey = "classforge:checksums"

type redisStore struct {
	cli *redis.Client
}

// NewRedis returns a Store backed by a Redis hash. All keys live under a
// single namespaced hash so a shared Redis instance can host caches for
// multiple unrelated tools without key collisions.
func NewRedis(cli *redis.Client) Store {
	return &redisStore{cli: cli}
}

func (s *redisStore) Get(key string) (string, bool, error) {
	ctx := context.Background()
	v, err := s.cli.HGet(ctx, redisHashKey, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		logging.Sugar().Warnw("redis checksum get", "key", key, "err", err)
		return "", false, err
	}
	return v, true, nil
}

func (s *redisStore) Set(key, checksum string) error {
	ctx := context.Background()
	if err := s.cli.HSet(ctx, redisHashKey, key, checksum).Err(); err != nil {
		logging.Sugar().Warnw("redis checksum set", "key", key, "err", err)
		return err
	}
	return nil
}

func (s *redisStore) Delete(key string) error {
	ctx := context.Background()
	if err := s.cli.HDel(ctx, redisHashKey, key).Err(); err != nil {
		logging.Sugar().Warnw("redis checksum delete", "key", key, "err", err)
		return err
	}
	return nil
}
