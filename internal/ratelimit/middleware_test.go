package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/storefront-toko/internal/common"
)

func TestHandlerMiddlewareEnforcesLimit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	store, err := NewStore(client, "1-M", "test:ratelimit")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	handler := Handler{
		Limiter: store,
		Key:     func(*http.Request) string { return "static" },
	}

	counted := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/checkout/items/p1/delivery-option", nil)
	rr1 := httptest.NewRecorder()
	counted.ServeHTTP(rr1, req.Clone(req.Context()))
	if rr1.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", rr1.Code)
	}

	rr2 := httptest.NewRecorder()
	counted.ServeHTTP(rr2, req.Clone(req.Context()))
	if rr2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second request, got %d", rr2.Code)
	}
	if rr2.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("unexpected limit header: %q", rr2.Header().Get("X-RateLimit-Limit"))
	}
	if rr2.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestMemoryStoreKeysBySession(t *testing.T) {
	store, err := NewStore(nil, "1-M", "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	counted := Handler{Limiter: store}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, sid := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodPost, "/cart", nil)
		req = req.WithContext(common.WithSessionID(req.Context(), sid))
		rr := httptest.NewRecorder()
		counted.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected first request of session %s allowed, got %d", sid, rr.Code)
		}
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{}, errors.New("store down")
}

func TestHandlerMiddlewareOnError(t *testing.T) {
	handler := Handler{Limiter: failingLimiter{}}

	called := false
	handler.OnError = func(error) { called = true }

	counted := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/cart", nil)
	rr := httptest.NewRecorder()
	counted.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected handler to proceed on error, got %d", rr.Code)
	}
	if !called {
		t.Fatal("expected OnError callback to be invoked")
	}
}

func TestNewStoreRejectsBadRate(t *testing.T) {
	if _, err := NewStore(nil, "lots", ""); err == nil {
		t.Fatal("expected error for malformed rate")
	}
}
