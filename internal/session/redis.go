package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/pkg/database"
)

const keyPrefix = "storefront:session:"

// RedisStore keeps the session under storefront:session:<profile>, which lets
// several machines share one signed-in profile.
type RedisStore struct {
	client  *redis.Client
	profile string
	ttl     time.Duration
}

// NewRedisStore creates a Redis-backed store. A zero ttl never expires the key.
func NewRedisStore(client *redis.Client, profile string, ttl time.Duration) *RedisStore {
	if profile == "" {
		profile = "default"
	}
	return &RedisStore{client: client, profile: profile, ttl: ttl}
}

// Key returns the Redis key used for the profile.
func (r *RedisStore) Key() string {
	return keyPrefix + r.profile
}

// Load returns the saved session, or the zero State when the key is absent.
func (r *RedisStore) Load(ctx context.Context) (_ State, err error) {
	ctx, end := database.TraceCommand(ctx, "session.load", "GET "+r.Key())
	defer func() { end(err) }()

	data, err := r.client.Get(ctx, r.Key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("redis get session: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return st, nil
}

// Save persists the session with the configured TTL.
func (r *RedisStore) Save(ctx context.Context, st State) (err error) {
	ctx, end := database.TraceCommand(ctx, "session.save", "SET "+r.Key())
	defer func() { end(err) }()

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.Key(), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}
