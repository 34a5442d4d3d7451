// Package lock serialises work across storefront instances with a Redis key.
package lock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

// Locker holds a Redis lock while fn runs. A nil Locker or a nil Client runs
// fn without locking, which is what a single instance without Redis needs.
type Locker struct {
	Client *redis.Client
	Prefix string
	Retry  time.Duration
}

// Do runs fn while holding key. The lock expires after ttl even if the
// holder dies; it is released as soon as fn returns.
func (l *Locker) Do(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if l == nil || l.Client == nil {
		return fn(ctx)
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	retry := l.Retry
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}
	key = l.Prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.Client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			defer l.release(key, token)
			return fn(ctx)
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.Client.Del(ctx, key).Err()
		}
	}
}
