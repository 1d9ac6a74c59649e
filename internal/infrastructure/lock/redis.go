package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when it still holds our token, so
// a worker whose lock expired mid-section cannot release a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a keyed lock backed by SET NX with a TTL. It is suitable for
// distributed deployments where workers do not share a database connection
// pool. The TTL bounds how long a crashed worker can wedge a key.
type Redis struct {
	client       *redis.Client
	keyPrefix    string
	ttl          time.Duration
	timeout      time.Duration
	pollInterval time.Duration
}

// RedisOption is a functional option for configuring the Redis lock
type RedisOption func(*Redis)

// WithTTL sets how long an acquired lock survives a crashed holder
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// WithAcquireTimeout sets how long WithLock waits for a contended key
func WithAcquireTimeout(timeout time.Duration) RedisOption {
	return func(r *Redis) {
		r.timeout = timeout
	}
}

// WithPollInterval sets the retry interval for contended keys
func WithPollInterval(interval time.Duration) RedisOption {
	return func(r *Redis) {
		r.pollInterval = interval
	}
}

// NewRedis creates a Redis-backed keyed lock with an existing client
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client:       client,
		keyPrefix:    "ingest:lock:",
		ttl:          60 * time.Second,
		timeout:      10 * time.Second,
		pollInterval: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithLock implements Keyed
func (r *Redis) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	redisKey := r.keyPrefix + key
	token := uuid.New().String()

	deadline := time.Now().Add(r.timeout)
	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire lock %q: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return &TimeoutError{Key: key, Timeout: r.timeout}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.pollInterval):
		}
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err()
	}()

	return fn(ctx)
}

var _ Keyed = (*Redis)(nil)
