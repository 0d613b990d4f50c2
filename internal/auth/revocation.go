package auth

import (
	"context"
	"fmt"
	"time"

	"marina/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "marina:revoked:"

type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type redisRevoker struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRevoker returns a Redis backed revoker, or a no-op one when client is nil.
func NewRevoker(client *redis.Client, log *logger.Logger) Revoker {
	if client == nil {
		log.Info("Credential revocation disabled")
		return NoopRevoker{}
	}
	return &redisRevoker{client: client, log: log}
}

func (r *redisRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store revoked token: %w", err)
	}
	r.log.Debug("Credential revoked", "jti", tokenID, "ttl", ttl)
	return nil
}

func (r *redisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}
	return n > 0, nil
}

type NoopRevoker struct{}

func (NoopRevoker) Revoke(context.Context, string, time.Duration) error { return nil }

func (NoopRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }
