package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/portal/internal/pkg/jwt"
)

// loginPath is where the portal client sends a customer without a session.
const loginPath = "/cuenta/login"

// routeSet indexes matched route paths by method.
type routeSet map[string]map[string]struct{}

func (s routeSet) has(method, path string) bool {
	_, ok := s[method][path]
	return ok
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func middlewareAuthentication(verifier jwt.JWT, public routeSet) Middleware {
	deny := func(w http.ResponseWriter, msg string) {
		writeJSON(w, errorResponse{
			Message: msg,
			Error:   map[string]string{"redirect_to": loginPath},
		}, http.StatusUnauthorized)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public.has(r.Method, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				deny(w, "Authentication required")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				deny(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
