package favorites

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/storefront-toko/internal/shopapi"
)

// Store remembers which products a session removed from its wishlist.
type Store interface {
	Removed(ctx context.Context, sessionID string) (map[shopapi.ID]bool, error)
	Remove(ctx context.Context, sessionID string, productID shopapi.ID) error
}

// MemoryStore keeps removals in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	removed map[string]map[shopapi.ID]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{removed: make(map[string]map[shopapi.ID]bool)}
}

func (m *MemoryStore) Removed(_ context.Context, sessionID string) (map[shopapi.ID]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[shopapi.ID]bool, len(m.removed[sessionID]))
	for id := range m.removed[sessionID] {
		out[id] = true
	}
	return out, nil
}

func (m *MemoryStore) Remove(_ context.Context, sessionID string, productID shopapi.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.removed[sessionID]
	if !ok {
		set = make(map[shopapi.ID]bool)
		m.removed[sessionID] = set
	}
	set[productID] = true
	return nil
}

// Forget drops the removals of an expired session.
func (m *MemoryStore) Forget(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.removed, sessionID)
}

// RedisStore keeps removals in a Redis set per session that expires with
// the session cookie.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func (r *RedisStore) key(sessionID string) string {
	return "wishlist:removed:" + sessionID
}

func (r *RedisStore) Removed(ctx context.Context, sessionID string) (map[shopapi.ID]bool, error) {
	members, err := r.Client.SMembers(ctx, r.key(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[shopapi.ID]bool, len(members))
	for _, m := range members {
		out[shopapi.ID(m)] = true
	}
	return out, nil
}

func (r *RedisStore) Remove(ctx context.Context, sessionID string, productID shopapi.ID) error {
	key := r.key(sessionID)
	pipe := r.Client.TxPipeline()
	pipe.SAdd(ctx, key, productID.String())
	if r.TTL > 0 {
		pipe.Expire(ctx, key, r.TTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}
