package abuse

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/raffle-registration-bot/pkg/logging"
)

// RedisGuard keeps one INCR counter per customer and attempt kind. The
// window starts at the first failure.
type RedisGuard struct {
	redis  *redis.Client
	config Config
	logger *logging.Logger
	tracer trace.Tracer
}

// NewRedisGuard creates a Redis-backed guard.
func NewRedisGuard(client *redis.Client, config Config, logger *logging.Logger) *RedisGuard {
	if client == nil {
		panic("abuse: redis client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisGuard{
		redis:  client,
		config: config.normalized(),
		logger: logger,
		tracer: otel.Tracer("raffle.internal.abuse"),
	}
}

func (g *RedisGuard) WouldExceed(ctx context.Context, customerID string, attempt Attempt) (bool, error) {
	count, err := g.redis.Get(ctx, attemptKey(customerID, attempt)).Int64()
	if errors.Is(err, redis.Nil) {
		count = 0
	} else if err != nil {
		return false, fmt.Errorf("abuse: failed to read %s attempts: %w", attempt, err)
	}
	return count+1 >= int64(g.config.MaxAttempts), nil
}

func (g *RedisGuard) RecordAttempt(ctx context.Context, customerID string, attempt Attempt) (bool, error) {
	ctx, span := g.tracer.Start(ctx, "abuse.record_attempt")
	defer span.End()
	span.SetAttributes(attribute.String("abuse.attempt", string(attempt)))

	key := attemptKey(customerID, attempt)
	count, err := g.redis.Incr(ctx, key).Result()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("abuse: failed to record %s attempt: %w", attempt, err)
	}
	if count == 1 {
		if err := g.redis.Expire(ctx, key, g.config.Window).Err(); err != nil {
			g.logger.Warn("abuse: failed to set window expiry", "key", key, "error", err)
		}
	}

	exceeded := count >= int64(g.config.MaxAttempts)
	if exceeded {
		g.logger.Warn("abuse: attempt limit reached",
			"customer_id", customerID,
			"attempt", string(attempt),
			"count", count,
			"max", g.config.MaxAttempts,
		)
		span.SetAttributes(attribute.Bool("abuse.exceeded", true))
	}
	return exceeded, nil
}

func (g *RedisGuard) Reset(ctx context.Context, customerID string, attempt Attempt) error {
	if err := g.redis.Del(ctx, attemptKey(customerID, attempt)).Err(); err != nil {
		return fmt.Errorf("abuse: failed to reset %s attempts: %w", attempt, err)
	}
	return nil
}

func attemptKey(customerID string, attempt Attempt) string {
	return fmt.Sprintf("abuse:%s:%s", attempt, customerID)
}
