package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_received_total",
		Help: "Total number of payment webhook deliveries by result",
	}, []string{"result"})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Verified payment events by type and reconciliation outcome",
	}, []string{"type", "outcome"})

	WebhookProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_webhook_processing_latency_seconds",
		Help:    "Latency of reconciling a verified payment event",
		Buckets: prometheus.DefBuckets,
	})

	OrdersPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of orders moved to PAID",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of orders moved to CANCELLED",
	})

	OrderTransitionConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transition_conflicts_total",
		Help: "Payment events ignored because the order was already in another terminal status",
	}, []string{"current", "target"})

	SessionLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_session_lookups_total",
		Help: "Checkout session landing resolutions by result",
	}, []string{"result"})

	StoreCacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_cache_lookups_total",
		Help: "Storefront lookups by cache result",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
