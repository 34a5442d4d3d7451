package security

import (
	"net/http"
	"strconv"
	"strings"
)

// Headers configures common security headers for HTTP responses.
type Headers struct {
	Enable                bool
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	// ContentSecurityPolicy is sent on every response when set.
	ContentSecurityPolicy string
}

// StorefrontCSP allows same-origin assets plus images from the given origins.
func StorefrontCSP(imageOrigins ...string) string {
	img := []string{"'self'", "data:"}
	for _, origin := range imageOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			img = append(img, trimmed)
		}
	}
	return "default-src 'self'; img-src " + strings.Join(img, " ") + "; style-src 'self' 'unsafe-inline'; form-action 'self'; frame-ancestors 'none'"
}

// Middleware attaches standard security headers to each response.
func (h Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.Enable {
			next.ServeHTTP(w, r)
			return
		}
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "same-origin")
		headers.Set("Permissions-Policy", "geolocation=(), microphone=()")
		if csp := strings.TrimSpace(h.ContentSecurityPolicy); csp != "" {
			headers.Set("Content-Security-Policy", csp)
		}
		if h.EnableHSTS && r.TLS != nil {
			maxAge := h.HSTSMaxAge
			if maxAge <= 0 {
				maxAge = 31536000
			}
			value := "max-age=" + strconv.Itoa(maxAge)
			if h.HSTSIncludeSubdomains {
				value += "; includeSubDomains"
			}
			headers.Set("Strict-Transport-Security", value)
		}
		next.ServeHTTP(w, r)
	})
}
