package api

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/identity"
	"github.com/felixgeelhaar/upkeep/pkg/observability"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
)

// Headers carrying tracing IDs in and out.
const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderRequestID     = "X-Request-ID"
)

type middleware func(http.Handler) http.Handler

// chain applies mws so the first one runs outermost.
func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// correlate propagates the caller's correlation ID, or starts a new one, and
// assigns every request its own request ID.
func correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithCorrelationID(r.Context(), r.Header.Get(HeaderCorrelationID))
		ctx = observability.WithRequestID(ctx, r.Header.Get(HeaderRequestID))
		w.Header().Set(HeaderCorrelationID, observability.CorrelationIDFromContext(ctx))
		w.Header().Set(HeaderRequestID, observability.RequestIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(logger *slog.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func authenticate(resolver identity.Resolver) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := resolver.Resolve(r)
			if err != nil {
				writeJSON(w, ErrUnauthenticated.Status, ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(r.Context(), p)))
		})
	}
}

// rateLimit limits each caller by principal, falling back to the client IP.
func rateLimit(l *limiter.Limiter, logger *slog.Logger) middleware {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return stdlib.NewMiddleware(l,
		stdlib.WithKeyGetter(func(r *http.Request) string {
			if p, ok := identity.FromContext(r.Context()); ok {
				return p.ID.String()
			}
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				return r.RemoteAddr
			}
			return host
		}),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, ErrRateLimited.Status, ErrRateLimited)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.WarnContext(r.Context(), "rate limiter unavailable", "error", err)
			writeJSON(w, ErrInternalServer.Status, ErrInternalServer)
		}),
	).Handler
}
