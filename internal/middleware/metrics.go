package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/rollcall/internal/metrics"
)

// Metrics records request counts and latency per route pattern. The pattern
// is read after the mux has routed the request, so unmatched paths share the
// "unmatched" label instead of creating a series per URL.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := record(w)

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
