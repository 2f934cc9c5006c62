// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wastebank_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method, route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wastebank_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// WasteUploadsTotal counts intake transactions by outcome so dashboards
	// can track device submission health without scraping logs.
	WasteUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wastebank_waste_uploads_total",
			Help: "Total number of waste upload attempts by outcome",
		},
		[]string{"outcome"},
	)

	// PointsAwardedTotal accumulates reward points granted through the
	// intake transaction.
	PointsAwardedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wastebank_points_awarded_total",
			Help: "Total reward points awarded across all submissions",
		},
	)

	// OTPIssuedTotal counts passcodes issued.
	OTPIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wastebank_otp_issued_total",
			Help: "Total number of one-time passcodes issued",
		},
	)

	// OTPVerifiedTotal counts successful email verifications.
	OTPVerifiedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wastebank_otp_verified_total",
			Help: "Total number of successful OTP verifications",
		},
	)
)
