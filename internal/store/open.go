package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Options struct {
	Backend string
	Key     string

	// sqlite
	DatabasePath string

	// redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open constructs the backend named in opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		return NewSQLiteStore(opts.DatabasePath, opts.Key)
	case BackendRedis:
		return NewRedisStore(ctx, &redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		}, opts.Key)
	case BackendMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}
