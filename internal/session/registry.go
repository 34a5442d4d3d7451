package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/noah-isme/storefront-toko/internal/checkout"
	"github.com/noah-isme/storefront-toko/internal/common"
)

type entry struct {
	checkout *checkout.Session
	lastSeen time.Time
}

// Registry maps session ids to their checkout session. Entries idle longer
// than IdleTTL are removed by Sweep.
type Registry struct {
	New     func() *checkout.Session
	IdleTTL time.Duration
	// OnEvict runs for every swept session id, outside the registry lock.
	OnEvict func(id string)

	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// NewRegistry returns a registry creating sessions with newFn.
func NewRegistry(newFn func() *checkout.Session, idleTTL time.Duration) *Registry {
	return &Registry{New: newFn, IdleTTL: idleTTL, entries: make(map[string]*entry), now: time.Now}
}

// Get returns the checkout session for id, creating it on first use.
func (r *Registry) Get(id string) *checkout.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]*entry)
	}
	e, ok := r.entries[id]
	if !ok {
		e = &entry{checkout: r.New()}
		r.entries[id] = e
	}
	e.lastSeen = r.clock()
	return e.checkout
}

// Reset discards the checkout session for id.
func (r *Registry) Reset(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Current returns the checkout session bound to the request's session id.
func (r *Registry) Current(req *http.Request) *checkout.Session {
	id, _ := common.SessionID(req.Context())
	return r.Get(id)
}

// ResetCurrent discards the checkout session bound to the request.
func (r *Registry) ResetCurrent(req *http.Request) {
	id, _ := common.SessionID(req.Context())
	r.Reset(id)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep removes idle sessions and returns how many were dropped.
func (r *Registry) Sweep() int {
	if r.IdleTTL <= 0 {
		return 0
	}
	r.mu.Lock()
	cutoff := r.clock().Add(-r.IdleTTL)
	var dropped []string
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			dropped = append(dropped, id)
		}
	}
	r.mu.Unlock()
	if r.OnEvict != nil {
		for _, id := range dropped {
			r.OnEvict(id)
		}
	}
	return len(dropped)
}

func (r *Registry) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}
