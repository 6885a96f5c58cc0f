package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/portal/internal/pkg/config"
)

// middlewareMaintenance answers 503 for the routes listed in
// app.maintenance.endpoints. An entry ending in "/*" closes every route
// below that prefix, e.g. "/api/v1/account/*" during a backend migration.
func middlewareMaintenance(cfg config.Config) Middleware {
	exact := make(map[string]struct{})
	var prefixes []string
	var retryAfter string

	if cfg != nil {
		for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
			endpoint = strings.TrimSpace(endpoint)
			switch {
			case endpoint == "":
			case strings.HasSuffix(endpoint, "/*"):
				prefixes = append(prefixes, strings.TrimSuffix(endpoint, "*"))
			default:
				exact[endpoint] = struct{}{}
			}
		}
		if v := cfg.GetSecond("app.maintenance.retry_after_seconds"); v > 0 {
			retryAfter = strconv.Itoa(int(v.Seconds()))
		}
	}

	closed := func(route string) bool {
		if _, ok := exact[route]; ok {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(route, p) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		if len(exact) == 0 && len(prefixes) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !closed(matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			if retryAfter != "" {
				w.Header().Set("Retry-After", retryAfter)
			}
			writeJSON(w, errorResponse{Message: "Estamos en mantenimiento. Intenta más tarde"}, http.StatusServiceUnavailable)
		})
	}
}
