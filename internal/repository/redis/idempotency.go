package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore records processed event IDs for a consumer group. It
// satisfies kafka.IdempotencyStore.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewIdempotencyStore creates a store scoped to group whose entries expire after ttl.
func NewIdempotencyStore(client *redis.Client, group string, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, prefix: "events:processed:" + group + ":", ttl: ttl}
}

func (s *IdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists event: %w", err)
	}
	return n > 0, nil
}

func (s *IdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, s.prefix+eventID, 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set event: %w", err)
	}
	return nil
}
