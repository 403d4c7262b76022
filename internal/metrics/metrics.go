package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OTP Metrics
	OTPIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_otp_issued_total",
		Help: "Total number of one-time codes issued.",
	})
	OTPVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_verifications_total",
		Help: "Total number of code verification attempts.",
	}, []string{"result"}) // result: "success" or "invalid"
	OTPPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_otp_purged_total",
		Help: "Total number of expired codes removed by the cleanup sweep.",
	})

	// Idea Metrics
	IdeasSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_ideas_submitted_total",
		Help: "Total number of idea submissions by outcome.",
	}, []string{"result"}) // result: "created", "duplicate", "invalid", "unverified"

	// Mail Metrics
	EmailDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_email_deliveries_total",
		Help: "Total number of outbound email attempts.",
	}, []string{"status"}) // status: "sent", "failed", "dropped"
	MailQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "app_mail_queue_depth",
		Help: "Number of emails waiting for a dispatch worker.",
	})

	// Database Metrics
	DBQueryDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"query_type", "repository", "status"})
	DBQueryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db_query_errors_total",
		Help: "Total number of failed database queries.",
	}, []string{"query_type", "repository"})

	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
	HTTPResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_response_size_bytes",
		Help:    "Size of HTTP responses in bytes.",
		Buckets: prometheus.ExponentialBuckets(64, 4, 7),
	}, []string{"method", "path", "status"})
	InFlightRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "Current number of in-flight HTTP requests.",
	})
)
