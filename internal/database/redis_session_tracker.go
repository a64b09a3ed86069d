package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"safepath-server/internal/interfaces"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisSessionTracker implements SessionTracker
var _ interfaces.SessionTracker = (*redisSessionTracker)(nil)

// redisSessionTracker keeps one sorted set per NGO, scored by the time a
// reader was last seen on one of that NGO's stories. Entries older than the
// window are pruned on every operation, so ZCARD is the active session count.
type redisSessionTracker struct {
	client *redis.Client
	window time.Duration
	logger *zap.Logger
}

// NewRedisSessionTracker creates a Redis-backed SessionTracker with the given
// sliding window.
func NewRedisSessionTracker(client *redis.Client, window time.Duration, logger *zap.Logger) interfaces.SessionTracker {
	return &redisSessionTracker{
		client: client,
		window: window,
		logger: logger.Named("RedisSessionTracker"),
	}
}

func (t *redisSessionTracker) key(ngoID uuid.UUID) string {
	return fmt.Sprintf("active_sessions:%s", ngoID.String())
}

// Touch records that the session identified by sessionKey is currently
// reading one of ngoID's stories.
func (t *redisSessionTracker) Touch(ctx context.Context, ngoID uuid.UUID, sessionKey string) error {
	key := t.key(ngoID)
	now := time.Now()
	cutoff := now.Add(-t.window)

	pipe := t.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.Unix()), Member: sessionKey})
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff.Unix(), 10))
	pipe.Expire(ctx, key, t.window)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Error("Failed to touch reading session in redis", zap.Error(err), zap.String("ngoID", ngoID.String()))
		return fmt.Errorf("failed to touch reading session in redis: %w", err)
	}
	t.logger.Debug("Reading session touched", zap.String("ngoID", ngoID.String()), zap.String("sessionKey", sessionKey))
	return nil
}

// ActiveCount returns the number of sessions seen within the window.
func (t *redisSessionTracker) ActiveCount(ctx context.Context, ngoID uuid.UUID) (int, error) {
	key := t.key(ngoID)
	cutoff := time.Now().Add(-t.window)

	pipe := t.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff.Unix(), 10))
	card := pipe.ZCard(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Error("Failed to count active sessions in redis", zap.Error(err), zap.String("ngoID", ngoID.String()))
		return 0, fmt.Errorf("failed to count active sessions in redis: %w", err)
	}
	return int(card.Val()), nil
}
