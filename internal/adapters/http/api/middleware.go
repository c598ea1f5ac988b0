package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/terptaster/pkg/metrics"
)

// unmatchedRoute labels requests that no route pattern claimed.
const unmatchedRoute = "unmatched"

// RequestMetrics records request count, latency and error class for every
// request the router sees, labelled by the matched chi route pattern. It must
// sit in front of the rate limiter so throttled requests are counted too.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		// The pattern is only known once routing has run.
		endpoint := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		elapsedMs := float64(time.Since(start).Microseconds()) / 1000
		code := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, elapsedMs)

		if rec.status < http.StatusBadRequest {
			return
		}
		class := errorClass(rec.status)
		metrics.RecordErrorByEndpoint(endpoint, r.Method, class)
		metrics.RecordErrorByType(class, errorSeverity(rec.status))
		metrics.RecordErrorLatency("http", class, elapsedMs)
	})
}

func errorClass(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusTooManyRequests:
		return "rate_limit"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case status == http.StatusConflict:
		return "conflict"
	default:
		return "client_error"
	}
}

func errorSeverity(status int) string {
	if status >= http.StatusInternalServerError {
		return "high"
	}
	return "medium"
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }
