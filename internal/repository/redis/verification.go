package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seansyed/parafort-sub010/internal/repository"
)

const (
	codeKeyPrefix     = "verify:code:"
	cooldownKeyPrefix = "verify:cooldown:"
	verifiedKeyPrefix = "verify:ok:"
)

// checkCodeScript compares the stored hash with ARGV[1] atomically.
// Returns 0 matched, 1 mismatch, 2 missing, 3 locked out.
var checkCodeScript = redis.NewScript(`
local stored = redis.call('HGET', KEYS[1], 'hash')
if not stored then
	return 2
end
if stored == ARGV[1] then
	redis.call('DEL', KEYS[1])
	return 0
end
local attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
if attempts >= tonumber(ARGV[2]) then
	redis.call('DEL', KEYS[1])
	return 3
end
return 1
`)

// VerificationStore implements repository.VerificationStore. Emails are
// expected to be normalized by the caller.
type VerificationStore struct {
	client *redis.Client
}

// NewVerificationStore creates a Redis-backed verification code store.
func NewVerificationStore(client *redis.Client) *VerificationStore {
	return &VerificationStore{client: client}
}

func (s *VerificationStore) AcquireResendSlot(ctx context.Context, email string, cooldown time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, cooldownKeyPrefix+email, 1, cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx resend cooldown: %w", err)
	}
	return ok, nil
}

func (s *VerificationStore) ReleaseResendSlot(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, cooldownKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("redis del resend cooldown: %w", err)
	}
	return nil
}

func (s *VerificationStore) SaveCode(ctx context.Context, email, codeHash string, ttl time.Duration) error {
	key := codeKeyPrefix + email
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, "hash", codeHash, "attempts", 0)
		p.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save verification code: %w", err)
	}
	return nil
}

func (s *VerificationStore) CheckCode(ctx context.Context, email, codeHash string, maxAttempts int) (repository.CodeCheck, error) {
	res, err := checkCodeScript.Run(ctx, s.client, []string{codeKeyPrefix + email}, codeHash, maxAttempts).Int()
	if err != nil {
		return repository.CodeMissing, fmt.Errorf("redis check verification code: %w", err)
	}
	switch res {
	case 0:
		return repository.CodeMatched, nil
	case 1:
		return repository.CodeMismatch, nil
	case 3:
		return repository.CodeLocked, nil
	default:
		return repository.CodeMissing, nil
	}
}

func (s *VerificationStore) MarkVerified(ctx context.Context, email string, ttl time.Duration) error {
	if err := s.client.Set(ctx, verifiedKeyPrefix+email, time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("redis set verified marker: %w", err)
	}
	return nil
}

func (s *VerificationStore) IsVerified(ctx context.Context, email string) (bool, error) {
	err := s.client.Get(ctx, verifiedKeyPrefix+email).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("redis get verified marker: %w", err)
	}
}
