package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTTL keeps an idle conversation for 30 days.
const DefaultTTL = 30 * 24 * time.Hour

// RedisStore keeps sessions as JSON values with a sliding TTL.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("raffle.internal.session"),
		now:    time.Now,
	}
}

func (s *RedisStore) Load(ctx context.Context, customerID string) (Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.load")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(customerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(customerID), nil
		}
		span.RecordError(err)
		return Session{}, fmt.Errorf("session: failed to load %s: %w", customerID, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return Session{}, fmt.Errorf("session: failed to decode %s: %w", customerID, err)
	}
	if !sess.Step.Valid() {
		return Session{}, fmt.Errorf("session: unknown step %q for %s", sess.Step, customerID)
	}
	sess.CustomerID = customerID
	return sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess Session) error {
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	sess.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal %s: %w", sess.CustomerID, err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.CustomerID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist %s: %w", sess.CustomerID, err)
	}
	return nil
}

func sessionKey(customerID string) string {
	return fmt.Sprintf("registration:session:%s", customerID)
}
