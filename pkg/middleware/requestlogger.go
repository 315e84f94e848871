package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/logger"
)

// UserIDFunc reports the signed-in user, or "" when there is none.
type UserIDFunc func(ctx context.Context) string

// RequestLogger stores a request-scoped logger in the context, enriched with
// the correlation id, the signed-in user and the trace ids. Mount it after
// RequestLogging and Tracing.
func RequestLogger(base *slog.Logger, userID UserIDFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID != nil {
				if id := userID(ctx); id != "" {
					ctx = logger.WithUserID(ctx, id)
				}
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
