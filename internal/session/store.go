package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound indicates the token is unknown or expired.
var ErrNotFound = errors.New("session not found")

const defaultKeyPrefix = "session:"

// Store maps opaque session tokens to user identifiers.
type Store interface {
	Set(ctx context.Context, token string, userID uint) error
	Get(ctx context.Context, token string) (uint, error)
	Delete(ctx context.Context, token string) error
}

// RedisStore keeps sessions in redis with a fixed lifetime.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore constructs a redis-backed session store. A non-positive ttl keeps keys forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}

func (s *RedisStore) Set(ctx context.Context, token string, userID uint) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("session token is required")
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.key(token), strconv.FormatUint(uint64(userID), 10), ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, token string) (uint, error) {
	value, err := s.client.Get(ctx, s.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session value: %w", err)
	}
	return uint(parsed), nil
}

// Delete is idempotent.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}
