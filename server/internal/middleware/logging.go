package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/shopfeed/internal/api"
	"github.com/devilmonastery/shopfeed/internal/pkg/idgen"
	"github.com/devilmonastery/shopfeed/internal/pkg/logger"
	"github.com/devilmonastery/shopfeed/internal/pkg/metrics"
)

// RequestIDHeader correlates a client request with server logs
const RequestIDHeader = "X-Request-ID"

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// RequestID echoes the caller's X-Request-ID or assigns one
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = idgen.RequestID()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// LogRequest logs each request and records it in the HTTP metrics, labelled
// by the matched route template so ids don't explode cardinality.
func LogRequest(log *slog.Logger) mux.MiddlewareFunc {
	log = log.With(slog.String("component", "http"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK, // default if WriteHeader not called
			}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			route := routeTemplate(r)
			metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
			metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(float64(duration.Milliseconds()))

			// Skip health checks and scrapes to reduce noise
			if r.URL.Path == api.PathHealth || r.URL.Path == api.PathMetrics {
				return
			}

			reqLog := logger.WithDuration(logger.WithHTTPRequest(log, r.Method, r.URL.Path), duration)
			reqLog = logger.WithRequest(reqLog, r.Header.Get(RequestIDHeader))

			attrs := []any{
				slog.Int("status", wrapped.statusCode),
				slog.Int64("bytes", wrapped.written),
				slog.String("client_ip", clientIP(r)),
				slog.String("user_agent", r.UserAgent()),
			}

			if wrapped.statusCode >= 500 {
				reqLog.Error("request failed", attrs...)
			} else {
				reqLog.Info("request", attrs...)
			}
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return metrics.NormalizeRoute(r.URL.Path)
}

// clientIP considers X-Forwarded-For when behind a proxy
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
