package security

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
)

const (
	DefaultCSRFHeader    = "X-CSRF-Token"
	DefaultCSRFCookie    = "csrf_token"
	DefaultCSRFFormField = "csrf_token"
)

type csrfTokenKey struct{}

// CSRF protects form posts using the double-submit technique. Safe requests
// receive a token cookie; unsafe requests must echo it in the header or in a
// hidden form field.
type CSRF struct {
	Header    string
	Cookie    string
	FormField string
	Secure    bool
	SameSite  http.SameSite
}

// Token returns the CSRF token attached to the request context.
func Token(ctx context.Context) string {
	if v, ok := ctx.Value(csrfTokenKey{}).(string); ok {
		return v
	}
	return ""
}

// WithToken stores a CSRF token on the context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfTokenKey{}, token)
}

// Middleware enforces that non-idempotent requests carry a token matching the cookie.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	headerName := valueOr(c.Header, DefaultCSRFHeader)
	cookieName := valueOr(c.Cookie, DefaultCSRFCookie)
	formField := valueOr(c.FormField, DefaultCSRFFormField)
	sameSite := c.SameSite
	if sameSite == http.SameSiteDefaultMode {
		sameSite = http.SameSiteLaxMode
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cookieValue string
		if cookie, err := r.Cookie(cookieName); err == nil {
			cookieValue = strings.TrimSpace(cookie.Value)
		}

		method := r.Method
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions || method == http.MethodTrace {
			if cookieValue == "" {
				cookieValue = newToken()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    cookieValue,
					Path:     "/",
					Secure:   c.Secure,
					SameSite: sameSite,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), cookieValue)))
			return
		}

		if cookieValue == "" {
			http.Error(w, "missing csrf cookie", http.StatusForbidden)
			return
		}
		token := strings.TrimSpace(r.Header.Get(headerName))
		if token == "" {
			token = strings.TrimSpace(r.PostFormValue(formField))
		}
		if token == "" {
			http.Error(w, "missing csrf token", http.StatusForbidden)
			return
		}
		if subtleConstantTimeCompare(token, cookieValue) != 1 {
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), cookieValue)))
	})
}

func newToken() string {
	return base64.RawURLEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
}

func valueOr(v, fallback string) string {
	if trimmed := strings.TrimSpace(v); trimmed != "" {
		return trimmed
	}
	return fallback
}

func subtleConstantTimeCompare(a, b string) int {
	if len(a) != len(b) {
		return 0
	}
	if len(a) == 0 {
		return 1
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b))
}
