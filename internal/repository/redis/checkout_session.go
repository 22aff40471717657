package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seansyed/parafort-sub010/internal/domain"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

const sessionKeyPrefix = "checkout:session:"

// CheckoutSessionStore implements repository.CheckoutSessionStore. Every
// Save resets the key's TTL, giving sessions a sliding expiry.
type CheckoutSessionStore struct {
	client *redis.Client
}

// NewCheckoutSessionStore creates a Redis-backed session store.
func NewCheckoutSessionStore(client *redis.Client) *CheckoutSessionStore {
	return &CheckoutSessionStore{client: client}
}

// Save writes the session with the given TTL.
func (s *CheckoutSessionStore) Save(ctx context.Context, cs *domain.CheckoutSession, ttl time.Duration) error {
	data, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("marshal checkout session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+cs.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set checkout session: %w", err)
	}
	return nil
}

// Get loads a session.
func (s *CheckoutSessionStore) Get(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("checkout session", id)
		}
		return nil, fmt.Errorf("redis get checkout session: %w", err)
	}

	var cs domain.CheckoutSession
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("unmarshal checkout session: %w", err)
	}
	return &cs, nil
}

// Delete removes a session.
func (s *CheckoutSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del checkout session: %w", err)
	}
	return nil
}
