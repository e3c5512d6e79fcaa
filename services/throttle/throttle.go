// Package throttle counts failed attempts per key within a fixed window.
package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/findmytutor/findmytutor/core"
)

const keyPrefix = "throttle:"

// INCR and PEXPIRE run as one script so a counter never outlives its window.
var takeScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Limiter allows at most a fixed number of attempts per key within a window.
type Limiter interface {
	// Take records one attempt for key and reports whether it is within the limit.
	// Counting and checking happen in one step, so concurrent attempts cannot overshoot.
	Take(ctx context.Context, key string) (bool, error)
	// Reset forgets every attempt recorded for key.
	Reset(ctx context.Context, key string) error
}

// New returns a Redis limiter when conf.Redis.Address is set, an in-memory one otherwise.
func New(ctx context.Context, conf *core.Config, logger core.Logger) (Limiter, error) {
	max, window := conf.Server.LoginMaxAttempts, conf.Server.LoginWindow
	if conf.Redis.Address == "" {
		logger.Info("throttle: no redis address configured, counting attempts in memory")
		return NewMemoryLimiter(max, window), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return NewRedisLimiter(rdb, max, window), nil
}

type redisLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, max int, window time.Duration) Limiter {
	return &redisLimiter{rdb: rdb, max: max, window: window}
}

// Take starts the window on the first attempt; later attempts do not extend it.
func (l *redisLimiter) Take(ctx context.Context, key string) (bool, error) {
	n, err := takeScript.Run(ctx, l.rdb, []string{keyPrefix + key}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, errors.Wrap(err, "counting attempt")
	}
	return n <= int64(l.max), nil
}

func (l *redisLimiter) Reset(ctx context.Context, key string) error {
	return errors.Wrap(l.rdb.Del(ctx, keyPrefix+key).Err(), "resetting attempts")
}

type bucket struct {
	count   int
	expires time.Time
}

type memoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	max     int
	window  time.Duration
	now     func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) Limiter {
	return &memoryLimiter{
		buckets: make(map[string]*bucket),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

func (l *memoryLimiter) Take(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.live(key)
	if b == nil {
		b = &bucket{expires: l.now().Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	return b.count <= l.max, nil
}

func (l *memoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, key)
	return nil
}

// live returns the unexpired bucket of key, dropping an expired one. Callers hold mu.
func (l *memoryLimiter) live(key string) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		return nil
	}
	if !l.now().Before(b.expires) {
		delete(l.buckets, key)
		return nil
	}
	return b
}
