package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Photo store outcomes.
const (
	PhotoStored   = "stored"
	PhotoRejected = "rejected"
	PhotoFailed   = "failed"
)

// Sync outcomes.
const (
	SyncCreated = "created"
	SyncUpdated = "updated"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vineyard_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vineyard_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	PhotoStoreTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vineyard_photo_store_total",
			Help: "Issue photo uploads by outcome",
		},
		[]string{"outcome"},
	)

	SyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vineyard_sync_total",
			Help: "Create-or-update calls by entity and outcome",
		},
		[]string{"entity", "outcome"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordPhotoStore(outcome string) {
	PhotoStoreTotal.WithLabelValues(outcome).Inc()
}

// RecordSync counts a create-or-update call; entity is "vine" or "location".
func RecordSync(entity string, created bool) {
	outcome := SyncUpdated
	if created {
		outcome = SyncCreated
	}
	SyncTotal.WithLabelValues(entity, outcome).Inc()
}

// Middleware records every request under its route template so that ids in
// paths do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RecordAPIRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
