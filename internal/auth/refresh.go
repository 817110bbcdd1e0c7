package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRefreshUnknown is returned when a refresh token is absent, expired, or
// already rotated.
var ErrRefreshUnknown = errors.New("auth: unknown refresh token")

// RefreshStore keeps issued refresh tokens in redis so rotation can
// invalidate the old token atomically.
type RefreshStore struct {
	client *redis.Client
	prefix string
}

// NewRefreshStore creates a store with the given key prefix.
func NewRefreshStore(client *redis.Client, prefix string) *RefreshStore {
	if prefix == "" {
		prefix = "classroll:refresh:"
	}
	return &RefreshStore{client: client, prefix: prefix}
}

// Save records a refresh token for a user until it expires.
func (s *RefreshStore) Save(ctx context.Context, token, userID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.prefix+token, userID, ttl).Err()
}

// Take consumes a refresh token and returns its user. The token is deleted
// in the same operation, so it cannot be replayed.
func (s *RefreshStore) Take(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, s.prefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrRefreshUnknown
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}
