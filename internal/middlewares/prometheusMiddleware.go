package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"ideabox/internal/metrics"
)

// routeLabel uses the mux path template so that path parameters and
// unknown URLs do not explode label cardinality.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// Instrument records request count, latency and response size.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.InFlightRequests.Inc()
		defer metrics.InFlightRequests.Dec()

		rec := newResponseRecorder(w)
		next.ServeHTTP(rec, r)

		statusCode := strconv.Itoa(rec.status())
		path := routeLabel(r)

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, statusCode).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path, statusCode).Observe(time.Since(start).Seconds())
		metrics.HTTPResponseSize.WithLabelValues(r.Method, path, statusCode).Observe(float64(rec.responseSize))
	})
}
