package cache

import (
	"context"
	"fmt"
	"time"
)

const revokedTokenPrefix = "revoked_token:"

// TokenDenylist remembers revoked token IDs until the tokens would have expired anyway.
type TokenDenylist struct {
	redis *RedisClient
}

func NewTokenDenylist(redis *RedisClient) *TokenDenylist {
	return &TokenDenylist{redis: redis}
}

func (d *TokenDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.redis.Set(ctx, revokedTokenPrefix+tokenID, 1, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.redis.Exists(ctx, revokedTokenPrefix+tokenID)
	if err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}
	return n > 0, nil
}
