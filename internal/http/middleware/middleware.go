// Package middleware contains the HTTP middleware mounted in front of the
// school routes: a slog access logger and the bearer token check.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestID returns the id chi's RequestID middleware attached to ctx, or
// "" outside a request.
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// Logger writes one structured line per request once it has completed.
func Logger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				log.Info("request completed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)),
					slog.String("remote", r.RemoteAddr),
					slog.String("request_id", RequestID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
