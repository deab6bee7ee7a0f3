package credstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps credentials in Redis under "<prefix>:<service>".
// Useful when several client processes share one session (e.g. a BFF fleet).
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed store. prefix scopes the keys to one
// session; an empty prefix defaults to "shopfeed:session".
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "shopfeed:session"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(service string) string {
	return s.prefix + ":" + service
}

// Get returns the value for service
func (s *RedisStore) Get(ctx context.Context, service string) (string, error) {
	v, err := s.rdb.Get(ctx, s.key(service)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", &StoreError{Op: "get", Service: service, Err: err}
	}
	return v, nil
}

// Set stores value for service
func (s *RedisStore) Set(ctx context.Context, service, value string) error {
	if err := s.rdb.Set(ctx, s.key(service), value, 0).Err(); err != nil {
		return &StoreError{Op: "set", Service: service, Err: err}
	}
	return nil
}

// Clear removes service
func (s *RedisStore) Clear(ctx context.Context, service string) error {
	if err := s.rdb.Del(ctx, s.key(service)).Err(); err != nil {
		return &StoreError{Op: "clear", Service: service, Err: err}
	}
	return nil
}

// SetPair writes both halves inside MULTI/EXEC
func (s *RedisStore) SetPair(ctx context.Context, access, refresh string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(ServiceAccessToken), access, 0)
		pipe.Set(ctx, s.key(ServiceRefreshToken), refresh, 0)
		return nil
	})
	if err != nil {
		return &StoreError{Op: "set", Service: ServiceAccessToken + "+" + ServiceRefreshToken, Err: err}
	}
	return nil
}
