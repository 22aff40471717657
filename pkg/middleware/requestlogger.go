package middleware

import (
	"log/slog"
	"net/http"

	"github.com/seansyed/parafort-sub010/pkg/logger"
)

// RequestLogger stores a logger enriched with the correlation, user, checkout
// session and trace IDs known so far in the request context. Mount it after
// RequestLogging and Tracing; handlers further down read it with
// logger.FromContext.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
