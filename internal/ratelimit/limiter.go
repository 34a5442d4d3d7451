package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether another event for key fits within the rate.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Store wraps a ulule limiter with a fixed rate.
type Store struct {
	l *limiter.Limiter
}

// NewStore builds a limiter from a formatted rate such as "30-S" or "100-M".
// A nil Redis client selects an in-process memory store.
func NewStore(rdb *redis.Client, rate, prefix string) (*Store, error) {
	parsed, err := limiter.NewRateFromFormatted(strings.TrimSpace(rate))
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", rate, err)
	}
	if prefix == "" {
		prefix = "storefront:ratelimit"
	}
	var store limiter.Store
	if rdb != nil {
		store, err = limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: prefix})
		if err != nil {
			return nil, fmt.Errorf("limiter redis store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix, CleanUpInterval: time.Minute})
	}
	return &Store{l: limiter.New(store, parsed)}, nil
}

// Allow increments the counter for key.
func (s *Store) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := s.l.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !res.Reached,
		Limit:     int(res.Limit),
		Remaining: int(res.Remaining),
		ResetAt:   time.Unix(res.Reset, 0),
	}, nil
}
