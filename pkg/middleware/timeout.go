package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds every request's context by timeout. Handlers see the
// deadline through r.Context() and the store calls they make are cancelled
// with it.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
