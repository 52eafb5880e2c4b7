// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rollcall_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_emails_sent_total",
		Help: "Announcement emails by delivery result.",
	}, []string{"result"})

	AttendanceSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_attendance_saves_total",
		Help: "Attendance upserts by outcome (created or replaced).",
	}, []string{"outcome"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})
)
