// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_connections_accepted_total",
			Help: "Total number of connections accepted by the receiver",
		},
	)

	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intake_connections_active",
			Help: "Number of connections currently being handled",
		},
	)

	ExchangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_exchanges_total",
			Help: "Total number of request/response exchanges by outcome",
		},
		[]string{"status", "error_code"},
	)

	ExchangeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intake_exchange_duration_seconds",
			Help:    "Duration of one exchange from accept to close in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	ReplyWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_reply_write_failures_total",
			Help: "Total number of replies that could not be written to the client",
		},
	)

	PublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_publish_failures_total",
			Help: "Total number of post-commit publish failures",
		},
		[]string{"publisher"},
	)
)
