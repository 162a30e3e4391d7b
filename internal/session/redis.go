package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the token pair in redis, for deployments where several
// client processes share one session (kiosk fleet, worker pool).
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "storefront"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":" + name
}

func (s *RedisStore) Tokens(ctx context.Context) (Tokens, error) {
	access, err := s.client.Get(ctx, s.key(KeyAccessToken)).Result()
	if errors.Is(err, redis.Nil) {
		return Tokens{}, ErrNoSession
	}
	if err != nil {
		return Tokens{}, fmt.Errorf("redis get failed: %w", err)
	}

	refresh, err := s.client.Get(ctx, s.key(KeyRefreshToken)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Tokens{}, fmt.Errorf("redis get failed: %w", err)
	}
	return Tokens{Access: access, Refresh: refresh}, nil
}

func (s *RedisStore) Save(ctx context.Context, tokens Tokens) error {
	if err := s.client.Set(ctx, s.key(KeyAccessToken), tokens.Access, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	if err := s.client.Set(ctx, s.key(KeyRefreshToken), tokens.Refresh, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys := []string{s.key(KeyAccessToken), s.key(KeyRefreshToken)}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// AccessToken implements api.Credentials.
func (s *RedisStore) AccessToken(ctx context.Context) (string, error) {
	return accessToken(ctx, s)
}
