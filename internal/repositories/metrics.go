package repositories

import (
	"github.com/prometheus/client_golang/prometheus"

	"ideabox/internal/metrics"
)

// observeQuery starts a query timer. The returned func records the duration
// and, when err is non-nil, bumps the error counter.
func observeQuery(repository, queryType string) func(err error) {
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		metrics.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))
	return func(err error) {
		if err != nil {
			status = "error"
			metrics.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		}
		timer.ObserveDuration()
	}
}
