package redisrepo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockPrefix   = "LOCK:"
	resultPrefix = "RES:"
)

// releaseIfOwner deletes KEYS[1] only while it still holds our lock token.
var releaseIfOwner = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// IdempotencyStore remembers the response of a request by its
// Idempotency-Key. A key is first locked while the request runs, then
// replaced by the stored result.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

// AcquireLock claims key for lockTTL. It returns the lock token, or "" when
// another request holds the key or already stored a result.
func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (string, error) {
	token := lockPrefix + uuid.NewString()

	ok, err := s.rdb.SetNX(ctx, key, token, lockTTL).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	return token, nil
}

func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, jsonPayload string) error {
	return s.rdb.Set(ctx, key, resultPrefix+jsonPayload, s.ttl).Err()
}

func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if strings.HasPrefix(v, resultPrefix) {
		return strings.TrimPrefix(v, resultPrefix), true, nil
	}

	return "", false, nil
}

func (s *IdempotencyStore) IsLocked(ctx context.Context, key string) (bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(v, lockPrefix), nil
}

// Release drops the lock taken with token so the request can be retried.
// A stored result or someone else's lock is left alone.
func (s *IdempotencyStore) Release(ctx context.Context, key, token string) error {
	return releaseIfOwner.Run(ctx, s.rdb, []string{key}, token).Err()
}
