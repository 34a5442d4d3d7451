package obs

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/storefront-toko/internal/common"
)

// Request surfaces, used as a metric label and span attribute.
const (
	SurfacePage     = "page"
	SurfaceMutation = "mutation"
	SurfaceJSON     = "json"
	SurfaceOps      = "ops"
)

type routePatternKey struct{}

type surfaceKey struct{}

// WithRoutePattern pins the route pattern on the context. Without it the
// pattern is read from chi once routing has finished.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the pinned pattern, else chi's matched
// pattern, else "".
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(routePatternKey{}).(string); ok && v != "" {
		return v
	}
	if rc := chi.RouteContext(ctx); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

// ClassifySurface tells ops endpoints, JSON clients, form posts and page views
// apart.
func ClassifySurface(r *http.Request) string {
	path := r.URL.Path
	switch {
	case path == "/metrics" || strings.HasPrefix(path, "/health/") || strings.HasPrefix(path, "/debug/"):
		return SurfaceOps
	case common.WantsJSON(r):
		return SurfaceJSON
	case r.Method != http.MethodGet && r.Method != http.MethodHead:
		return SurfaceMutation
	default:
		return SurfacePage
	}
}

// SurfaceFromContext returns the surface stored by SurfaceMiddleware.
func SurfaceFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(surfaceKey{}).(string)
	return v
}

func surfaceOf(r *http.Request) string {
	if s := SurfaceFromContext(r.Context()); s != "" {
		return s
	}
	return ClassifySurface(r)
}

// routeOf names the request for metrics and spans. fallback is used before
// routing or for unmatched paths.
func routeOf(r *http.Request, fallback string) string {
	if route := RoutePatternFromContext(r.Context()); route != "" {
		return route
	}
	return fallback
}
