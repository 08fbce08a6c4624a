// Package metrics holds the Prometheus collectors shared by the cache, the
// query engine and the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts result cache lookups by view and outcome
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newshier_cache_lookups_total",
		Help: "Result cache lookups by view and result (hit, miss)",
	}, []string{"view", "result"})

	// CacheComputes counts computations actually executed after a miss
	CacheComputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newshier_cache_computes_total",
		Help: "Tree computations run after a cache miss, by view and outcome",
	}, []string{"view", "outcome"})

	// CacheShared counts callers that joined an in-flight computation
	CacheShared = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newshier_cache_shared_total",
		Help: "Callers served by another caller's in-flight computation",
	}, []string{"view"})

	// QueryDuration tracks store query latency
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "newshier_query_duration_seconds",
		Help:    "Store query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"op"})

	// QueryErrors counts store failures by operation
	QueryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newshier_query_errors_total",
		Help: "Store query failures by operation",
	}, []string{"op"})

	// DroppedRows counts join rows discarded as malformed
	DroppedRows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newshier_dropped_rows_total",
		Help: "Join rows dropped because of malformed data",
	})

	// HTTPRequests counts handled requests by route and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newshier_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "status"})

	// HTTPDuration tracks request latency per route
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "newshier_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
