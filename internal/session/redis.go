package session

import (
	"context"
	"log/slog"
	"time"

	redispkg "github.com/Proton-105/aadee-assistant/pkg/redis"
)

// RedisClient is the subset of pkg/redis used for session ids.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// RedisKV stores session ids in Redis under a common prefix.
type RedisKV struct {
	client RedisClient
	prefix string
	log    *slog.Logger
}

// NewRedisKV creates a Redis-backed KV. Keys are stored as prefix+key without expiry.
func NewRedisKV(client RedisClient, prefix string, log *slog.Logger) *RedisKV {
	if log == nil {
		log = slog.Default()
	}

	return &RedisKV{client: client, prefix: prefix, log: log}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.prefix+key)
	if redispkg.IsNil(err) {
		return "", ErrNotFound
	}
	if err != nil {
		r.log.Error("failed to read session id from redis", slog.String("key", key), slog.Any("error", err))
		return "", err
	}

	return v, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0); err != nil {
		r.log.Error("failed to save session id in redis", slog.String("key", key), slog.Any("error", err))
		return err
	}

	return nil
}
