package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	redisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_requests_total",
			Help: "Total number of Redis requests",
		},
		[]string{"operation"}, // get, set, incr, ttl
	)

	redisErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_errors_total",
			Help: "Total number of Redis errors",
		},
		[]string{"operation"},
	)

	redisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_request_duration_seconds",
			Help:    "Redis request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	redisUsedMemoryBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "redis_used_memory_bytes",
			Help: "Redis used_memory as reported by INFO memory",
		},
	)
)

func IncRedisRequest(operation string) {
	redisRequestsTotal.WithLabelValues(operation).Inc()
}

func IncRedisError(operation string) {
	redisErrorsTotal.WithLabelValues(operation).Inc()
}

func ObserveRedisDuration(operation string, d time.Duration) {
	redisDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func SetRedisUsedMemoryBytes(n int64) {
	if n < 0 {
		n = 0
	}
	redisUsedMemoryBytes.Set(float64(n))
}
