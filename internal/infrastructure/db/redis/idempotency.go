package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed creator can hold a key.
	pendingTTL    = time.Minute
	pendingMarker = "pending"
)

// IdempotencyStore maps an Idempotency-Key to the student it created.
// Key format: idempotency:students:<key>
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Reserve claims key with a pending marker. It reports false when the key is
// already claimed or resolved.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), pendingMarker, pendingTTL).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency reserve: %w", err)
	}
	return ok, nil
}

// Lookup returns the student id recorded for key, if any. A pending claim is
// found with an empty id.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	id, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency lookup: %w", err)
	}
	if id == pendingMarker {
		return "", true, nil
	}
	return id, true, nil
}

// Remember resolves key to studentID, replacing the pending claim.
func (s *IdempotencyStore) Remember(ctx context.Context, key, studentID string) error {
	return s.client.Set(ctx, s.key(key), studentID, idempotencyTTL).Err()
}

// Release drops a claim whose create failed so a retry can claim it again.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *IdempotencyStore) key(key string) string {
	return "idempotency:students:" + key
}
