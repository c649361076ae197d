package storageclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы запросов к Storage Service (значения лейбла outcome).
const (
	outcomeOK             = "ok"
	outcomeHTTPError      = "http_error"
	outcomeTransportError = "transport_error"
	outcomeDecodeError    = "decode_error"
)

var (
	// storageRequestsTotal — количество запросов к Storage Service по операциям и исходам.
	storageRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wc_storage_requests_total",
			Help: "Количество запросов Web Client к Storage Service",
		},
		[]string{"operation", "outcome"},
	)

	// storageRequestDuration — длительность запросов к Storage Service.
	storageRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wc_storage_request_duration_seconds",
			Help:    "Длительность запросов Web Client к Storage Service в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func observe(op, outcome string, start time.Time) {
	storageRequestsTotal.WithLabelValues(op, outcome).Inc()
	storageRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
