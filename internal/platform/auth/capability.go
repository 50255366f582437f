package auth

import (
	"context"
	"net/http"
	"strings"
)

// CapView is required to watch a module and report progress on it.
const CapView = "mediawatch:view"

func CapsFromContext(ctx context.Context) []string {
	v, _ := ctx.Value(ctxKeyCaps{}).([]string)
	return v
}

// WithCaps injects capabilities into context. Useful for testing.
func WithCaps(ctx context.Context, caps ...string) context.Context {
	return context.WithValue(ctx, ctxKeyCaps{}, caps)
}

// HasCap reports whether the caller holds capability c. Admins hold all.
func HasCap(ctx context.Context, c string) bool {
	if role, _ := RoleFromContext(ctx); strings.EqualFold(strings.TrimSpace(role), "admin") {
		return true
	}
	for _, have := range CapsFromContext(ctx) {
		if strings.EqualFold(strings.TrimSpace(have), c) {
			return true
		}
	}
	return false
}

// RequireCap allows the request only if RequireUser already injected capability c.
func RequireCap(c string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !HasCap(r.Context(), c) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
