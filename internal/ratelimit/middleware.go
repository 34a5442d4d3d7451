package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/storefront-toko/internal/common"
)

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter Limiter
	// Key derives the bucket for a request. Defaults to SessionOrIP.
	Key     func(*http.Request) string
	OnError func(error)
}

// SessionOrIP keys by browser session when one is attached, else by client IP.
func SessionOrIP(r *http.Request) string {
	if id, ok := common.SessionID(r.Context()); ok {
		return "session:" + id
	}
	return "ip:" + common.ClientIP(r)
}

// Middleware implements the http.Handler middleware interface.
func (h Handler) Middleware(next http.Handler) http.Handler {
	keyFn := h.Key
	if keyFn == nil {
		keyFn = SessionOrIP
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		decision, err := h.Limiter.Allow(r.Context(), keyFn(r))
		if err != nil {
			// fail open
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, slow down", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
