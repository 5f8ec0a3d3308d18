// Package observability provides metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// FeedPageRequests counts rendered feed pages by feed kind.
	FeedPageRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_feed_page_requests_total",
		Help: "Total number of feed pages served by kind",
	}, []string{"kind"})

	// ListingCacheLookups counts listing cache lookups by result (hit, miss).
	ListingCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_listing_cache_lookups_total",
		Help: "Listing cache lookups by result",
	}, []string{"result"})

	// ListingCacheClears counts explicit listing cache clears.
	ListingCacheClears = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_listing_cache_clears_total",
		Help: "Total number of listing cache clears",
	})

	// WebSocketConnections is the gauge of open notice sockets.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yatube_websocket_connections",
		Help: "Number of open WebSocket connections",
	})

	// WebSocketDrops counts notices dropped because a client could not keep up.
	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_websocket_drops_total",
		Help: "Notices dropped due to backpressure",
	}, []string{"reason"})
)
