// Package lock serialises jobs that target the same chapter key.
//
// Acquire never waits: a key held by another job is reported as
// chapters.ErrJobLocked so the caller can fail fast.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/brogergvhs/mangasync/internal/chapters"
)

type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Local guards keys inside one process.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocal() *Local {
	return &Local{held: map[string]struct{}{}}
}

func (l *Local) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, errors.Wrapf(chapters.ErrJobLocked, "key %s", key)
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}

// Deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis guards keys across every process sharing the server. The TTL bounds
// how long a crashed process can keep a key.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    interface{ Errorf(string, ...any) }
}

func NewRedis(client *redis.Client, ttl time.Duration, log interface{ Errorf(string, ...any) }) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &Redis{client: client, prefix: "mangasync:job:", ttl: ttl, log: log}
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	name := r.prefix + key

	ok, err := r.client.SetNX(ctx, name, token, r.ttl).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "lock %s", key)
	}
	if !ok {
		return nil, errors.Wrapf(chapters.ErrJobLocked, "key %s", key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The job context may already be cancelled.
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()

			if err := releaseScript.Run(ctx, r.client, []string{name}, token).Err(); err != nil && r.log != nil {
				r.log.Errorf("release lock %s: %v", key, err)
			}
		})
	}, nil
}

func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "redis: invalid URL")
	}

	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis: ping")
	}

	return client, nil
}
