package router

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ulule/limiter/v3"
)

// RateLimit rejects requests once the client IP exceeds the limiter rate.
//
// The key combines the matched route and the IP resolved by middlewareIP, so
// each endpoint keeps its own budget. Store failures fail open.
func RateLimit(l *limiter.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := matchedRoutePath(r) + "|" + clientIP(r)
			lctx, err := l.Get(r.Context(), key)
			if err != nil {
				slog.WarnContext(r.Context(), "rate limiter store unavailable", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				slog.WarnContext(r.Context(), "rate limit reached", "key", key)
				writeJSON(w, errorResponse{Message: "Demasiadas solicitudes. Intenta más tarde"}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
