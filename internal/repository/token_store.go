package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore keeps the single currently-valid refresh token per user in
// Redis under `refresh_token:<userID>` with a TTL matching the token's
// expiry. Store overwrites unconditionally, so concurrent logins race
// safely to last-write-wins and at most one refresh token is live per
// user at any time. Connectivity failures map to ErrStoreUnavailable;
// only an actual missing key means "no session".
type TokenStore struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewTokenStore(rdb *redis.Client, ttlDays int) *TokenStore {
	return &TokenStore{RDB: rdb, TTL: time.Duration(ttlDays) * 24 * time.Hour}
}

func refreshKey(userID uint64) string {
	return fmt.Sprintf("refresh_token:%d", userID)
}

// Store saves the exact refresh token string for the user, replacing any
// previous value. The SET is atomic, so no application-level locking is
// needed for the one-token-per-user invariant.
func (s *TokenStore) Store(ctx context.Context, userID uint64, token string) error {
	if err := s.RDB.Set(ctx, refreshKey(userID), token, s.TTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Fetch returns the stored refresh token for the user, or ErrNotFound
// when no token is stored (or it expired with its TTL).
func (s *TokenStore) Fetch(ctx context.Context, userID uint64) (string, error) {
	v, err := s.RDB.Get(ctx, refreshKey(userID)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return v, nil
}

// Remove deletes the stored refresh token. Deleting a missing key is not
// an error; logout is idempotent.
func (s *TokenStore) Remove(ctx context.Context, userID uint64) error {
	if err := s.RDB.Del(ctx, refreshKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
