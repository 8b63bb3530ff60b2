// Package metrics provides Prometheus metrics for the berit bot.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "berit_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "berit_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Index Metrics
	IndexCards = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "berit_index_cards",
			Help: "Number of cards in the lookup index by category",
		},
		[]string{"category"}, // "commander", "other"
	)

	RecordsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "berit_records_skipped_total",
			Help: "Dataset records left out of the index",
		},
		[]string{"reason"}, // "malformed", "ineligible", "duplicate"
	)

	IndexBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "berit_index_build_duration_seconds",
			Help:    "Time taken to fetch and index the card dataset",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	// Lookup Metrics
	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "berit_tokens_total",
			Help: "Query tokens handled by outcome",
		},
		[]string{"outcome"}, // "resolved", "not_found", "random", "random_empty", "help"
	)

	ResolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "berit_resolve_duration_seconds",
			Help:    "Time taken to resolve one pattern against the index",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	ResolveCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "berit_resolve_cache_hits_total",
			Help: "Resolve cache hit count",
		},
	)

	ResolveCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "berit_resolve_cache_misses_total",
			Help: "Resolve cache miss count",
		},
	)

	// Chat Metrics
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "berit_messages_total",
			Help: "Chat messages seen by the bot",
		},
		[]string{"result"}, // "ignored", "no_tokens", "silent", "replied", "send_failed"
	)

	// Scryfall API Metrics
	ScryfallRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "berit_scryfall_requests_total",
			Help: "Total number of Scryfall API requests made",
		},
		[]string{"endpoint", "result"},
	)

	// Lookup stats writer
	LookupStatsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "berit_lookup_stats_dropped_total",
			Help: "Lookup stat events dropped because the write queue was full",
		},
	)

	LookupStatsQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "berit_lookup_stats_queue_size",
			Help: "Number of distinct keyword/outcome pairs waiting to be flushed",
		},
	)
)
