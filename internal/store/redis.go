package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the seen set in a Redis set, for deployments where several
// pipeline instances share one dedup state.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore parses redisURL, verifies connectivity, and returns a store
// backed by the set at key.
func NewRedisStore(ctx context.Context, redisURL, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{client: client, key: key}, nil
}

// HasSeen checks set membership for the posting ID.
func (s *RedisStore) HasSeen(id string) (bool, error) {
	seen, err := s.client.SIsMember(context.Background(), s.key, id).Result()
	if err != nil {
		return false, fmt.Errorf("checking seen status for %s: %w", id, err)
	}
	return seen, nil
}

// MarkSeen adds the posting ID to the set.
func (s *RedisStore) MarkSeen(id string) error {
	if err := s.client.SAdd(context.Background(), s.key, id).Err(); err != nil {
		return fmt.Errorf("marking posting %s as seen: %w", id, err)
	}
	return nil
}

// Cleanup is a no-op for Redis; entry aging is left to the deployment's key
// expiry policy.
func (s *RedisStore) Cleanup(_ time.Duration) error { return nil }

// IsEmpty returns true if the seen set has no members.
func (s *RedisStore) IsEmpty() (bool, error) {
	n, err := s.client.SCard(context.Background(), s.key).Result()
	if err != nil {
		return false, fmt.Errorf("checking if store is empty: %w", err)
	}
	return n == 0, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
