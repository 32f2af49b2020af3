package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-client/internal/domain"

	"github.com/go-redis/redis/v8"
)

// RedisTokenStore keeps the bearer token under one fixed key, the same way
// the browser client keeps it in local storage.
type RedisTokenStore struct {
	client *redis.Client
	key    string
}

func NewRedisTokenStore(client *redis.Client, key string) *RedisTokenStore {
	if key == "" {
		key = "token"
	}
	return &RedisTokenStore{client: client, key: key}
}

func (r *RedisTokenStore) Token(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return token, nil
}

// SetToken stores token; a zero ttl keeps it until cleared.
func (r *RedisTokenStore) SetToken(ctx context.Context, token string, ttl time.Duration) error {
	return r.client.Set(ctx, r.key, token, ttl).Err()
}

func (r *RedisTokenStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

var _ domain.TokenStore = (*RedisTokenStore)(nil)
