package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/ascent/internal/adapters/identity"
	"github.com/okian/ascent/pkg/metrics"
)

// MetricsMiddleware records request counts, durations, and error classes
// per endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.status)
		elapsed := float64(time.Since(start).Milliseconds())
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, elapsed)
		if wrapped.status >= http.StatusBadRequest {
			metrics.RecordHTTPError(endpoint, errorClass(wrapped.status))
		}
	}
}

func errorClass(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusTooManyRequests:
		return "rate_limit"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusForbidden:
		return "forbidden"
	default:
		return "client_error"
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Authentication headers set by the fronting proxy.
const (
	HeaderUserID   = "X-User-Id"
	HeaderElevated = "X-Elevated"
)

// IdentityMiddleware lifts the proxy's authentication headers into the
// request context as the authenticated caller. Requests without a user
// header pass through unauthenticated and fail authorization downstream.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := r.Header.Get(HeaderUserID); userID != "" {
			caller := identity.Caller{
				UserID:   userID,
				Elevated: r.Header.Get(HeaderElevated) == "true",
			}
			r = r.WithContext(identity.WithCaller(r.Context(), caller))
		}
		next.ServeHTTP(w, r)
	})
}
