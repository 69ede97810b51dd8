package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	redisKeyPrefix = "validation:"
	sweepScanCount = 200
)

// RedisStore shares validation states between API instances. Entries also
// carry a Redis TTL so abandoned sessions disappear even when no sweeper runs.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore creates a Redis-backed store. A ttl of zero stores entries
// without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("validation: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("incident-report.internal.validation")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{redis: client, ttl: ttl, tracer: tracer}
}

func redisKey(sessionKey string) string {
	return redisKeyPrefix + sessionKey
}

// Get loads the state for sessionKey. redis.Nil is reported as absent.
func (s *RedisStore) Get(ctx context.Context, sessionKey string) (State, bool, error) {
	ctx, span := s.tracer.Start(ctx, "validation.get")
	defer span.End()

	data, err := s.redis.Get(ctx, redisKey(sessionKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, false, nil
		}
		span.RecordError(err)
		return State{}, false, fmt.Errorf("validation: failed to load state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return State{}, false, fmt.Errorf("validation: failed to decode state: %w", err)
	}
	return state, true, nil
}

// Set overwrites the state for sessionKey and refreshes its TTL.
func (s *RedisStore) Set(ctx context.Context, sessionKey string, state State) error {
	ctx, span := s.tracer.Start(ctx, "validation.set")
	defer span.End()
	span.SetAttributes(attribute.Int("validation.attempt_count", state.AttemptCount))

	data, err := json.Marshal(state)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("validation: failed to marshal state: %w", err)
	}
	if err := s.redis.Set(ctx, redisKey(sessionKey), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("validation: failed to persist state: %w", err)
	}
	return nil
}

// Clear deletes sessionKey. Deleting a missing key is not an error.
func (s *RedisStore) Clear(ctx context.Context, sessionKey string) error {
	ctx, span := s.tracer.Start(ctx, "validation.clear")
	defer span.End()

	if err := s.redis.Del(ctx, redisKey(sessionKey)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("validation: failed to clear state: %w", err)
	}
	return nil
}

// SweepOlderThan scans every validation key and deletes the aged ones.
func (s *RedisStore) SweepOlderThan(ctx context.Context, maxAge time.Duration, now time.Time) (int, error) {
	ctx, span := s.tracer.Start(ctx, "validation.sweep")
	defer span.End()

	var stale []string
	iter := s.redis.Scan(ctx, 0, redisKeyPrefix+"*", sweepScanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if isStale(strings.TrimPrefix(key, redisKeyPrefix), maxAge, now) {
			stale = append(stale, key)
		}
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("validation: failed to scan states: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	removed, err := s.redis.Del(ctx, stale...).Result()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("validation: failed to delete stale states: %w", err)
	}
	span.SetAttributes(attribute.Int64("validation.swept", removed))
	return int(removed), nil
}
