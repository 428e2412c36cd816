// Package kv is the shared key-value boundary used for run-payload caching,
// distributed per-(universe,mode) locks, and the tick pub/sub bus. Backed by
// Redis; JSON get/set and lock calls degrade to a disabled-but-functioning
// mode when Redis is unreachable rather than propagating connection errors
// to callers. Publish returns its error to the caller.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DisabledSentinel is returned by AcquireLock when Redis is unreachable: the
// caller holds a no-op lock and should proceed without contention control,
// matching the upstream service's degrade-open policy for lock contention.
const DisabledSentinel = "__kv_lock_disabled__"

// Store is the KV boundary: JSON get/set, distributed locks, and tick
// publish/subscribe.
type Store struct {
	client *redis.Client
	log    zerolog.Logger
}

// New builds a Store from a redis:// URL. Connectivity is not verified
// here; the first operation that fails to reach Redis logs a warning and
// degrades rather than erroring, mirroring the upstream client's lazy,
// best-effort connection policy.
func New(redisURL string, log zerolog.Logger) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Store{
		client: redis.NewClient(opts),
		log:    log.With().Str("component", "kv").Logger(),
	}, nil
}

// NewFromClient wraps an already-constructed client, used by tests against
// miniredis.
func NewFromClient(client *redis.Client, log zerolog.Logger) *Store {
	return &Store{client: client, log: log.With().Str("component", "kv").Logger()}
}

// Ping reports whether the underlying Redis connection is reachable, used
// by the /healthz surface.
func (s *Store) Ping(ctx context.Context) bool {
	if s == nil || s.client == nil {
		return false
	}
	return s.client.Ping(ctx).Err() == nil
}

// SetJSON marshals value and stores it under key, with an optional TTL
// (ex<=0 means no expiry). Failures are logged and swallowed: persistence
// failures never abort the caller's computation (§7).
func (s *Store) SetJSON(ctx context.Context, key string, value any, ex time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("marshal value for set_json")
		return
	}
	if err := s.client.Set(ctx, key, payload, ex).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis set_json failed")
	}
}

// GetJSON fetches key and unmarshals it into dest. It returns false when the
// key is missing, Redis is unreachable, or decoding fails — callers treat
// false as "no cached value available".
func (s *Store) GetJSON(ctx context.Context, key string, dest any) bool {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn().Err(err).Str("key", key).Msg("redis get_json failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("unmarshal get_json value")
		return false
	}
	return true
}

// AcquireLock attempts a SET NX lock with the given TTL. It returns a token
// string on success, DisabledSentinel if Redis could not be reached, or ""
// if the lock is already held by someone else.
func (s *Store) AcquireLock(ctx context.Context, key string, ttl time.Duration) string {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis acquire_lock failed")
		return DisabledSentinel
	}
	if ok {
		return token
	}
	return ""
}

// ReleaseLock releases key if the caller still holds it (i.e. token matches
// the stored value). A DisabledSentinel token is a no-op, since no lock was
// ever actually taken.
func (s *Store) ReleaseLock(ctx context.Context, key, token string) {
	if token == DisabledSentinel || token == "" {
		return
	}
	current, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn().Err(err).Str("key", key).Msg("redis release_lock failed")
		}
		return
	}
	if current == token {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("redis release_lock delete failed")
		}
	}
}

// Publish publishes payload on channel, used by the tick bus to fan out
// quote updates across process instances.
func (s *Store) Publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal publish payload: %w", err)
	}
	return s.client.Publish(ctx, channel, data).Err()
}

// Subscribe returns a raw redis.PubSub for channel; callers read its
// Channel() and decode messages themselves since payload shapes vary by
// channel (tick vs top_picks_update vs dashboard_update).
func (s *Store) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return s.client.Subscribe(ctx, channel)
}

// Close releases the underlying Redis connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
