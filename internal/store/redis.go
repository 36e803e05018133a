package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the collection as a single string value in Redis.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(ctx context.Context, opts *redis.Options, key string) (*RedisStore, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{rdb: rdb, key: key}, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) LoadAll(ctx context.Context) ([]*Comment, error) {
	data, err := s.Raw(ctx)
	if err != nil {
		return nil, err
	}
	return decodeSlot("redis", s.key, data), nil
}

func (s *RedisStore) SaveAll(ctx context.Context, comments []*Comment) error {
	data, err := Encode(comments)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key, data, 0).Err()
}

func (s *RedisStore) ClearAll(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}

func (s *RedisStore) Raw(ctx context.Context) ([]byte, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

var _ Store = (*RedisStore)(nil)
