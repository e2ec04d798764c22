package middleware

import (
	"net/http"

	"lead-activity-feed/internal/platform/errreport"
	"lead-activity-feed/internal/platform/logger"
)

// Recover turns handler panics into a 500, reporting them through errreport
// so they land in error tracking instead of only a stack trace on stdout.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					errreport.CapturePanicValue(v)
					log.Error("panic in handler", map[string]any{
						"path":  r.URL.Path,
						"panic": v,
					})
					http.Error(w, "internal error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
