package handlers

import (
	"net"
	"net/http"
	"strings"
	"time"

	"baduklive/internal/logging"
	"baduklive/internal/metrics"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
)

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ClientIP extracts the client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// requestLogger logs one line per request. Streams log when they end.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Str("ip", ClientIP(r)).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

// trackWatcher counts an attached stream until the returned func is called
func trackWatcher(transport string) func() {
	g := metrics.Watchers.WithLabelValues(transport)
	g.Inc()
	return g.Dec
}
