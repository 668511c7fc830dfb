// Package metrics provides Prometheus metrics for the Spark Arcanum backend.
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
			Name: "arcanum_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arcanum_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Import Metrics
	CardsImportedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arcanum_cards_imported_total",
			Help: "Total number of card rows upserted by the bulk importer",
		},
	)

	ImportErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arcanum_import_errors_total",
			Help: "Card records skipped by the bulk importer after a write failure",
		},
	)

	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arcanum_import_duration_seconds",
			Help:    "Time taken by a full AllPrintings import run",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	RulesImportedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arcanum_rules_imported_total",
			Help: "Total number of comprehensive-rules entries created or updated",
		},
	)

	// Rarity Backfill Metrics
	RarityResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcanum_rarity_resolutions_total",
			Help: "Rarity resolutions by source",
		},
		[]string{"source"}, // "cache", "bulk", "heuristic", "remote", "unresolved"
	)

	RarityBackfillDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arcanum_rarity_backfill_duration_seconds",
			Help:    "Time taken by a rarity backfill run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)

	// Search Metrics
	SearchRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arcanum_search_requests_total",
			Help: "Total number of ranked card searches",
		},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arcanum_search_duration_seconds",
			Help:    "Ranked card search latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// Scryfall API Metrics
	ScryfallRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcanum_scryfall_requests_total",
			Help: "Scryfall API requests by outcome",
		},
		[]string{"outcome"}, // "hit", "miss", "error"
	)

	// Assistant Metrics
	AssistantRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arcanum_assistant_requests_total",
			Help: "Total AI assistant questions received",
		},
	)

	AssistantCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arcanum_assistant_cache_hits_total",
			Help: "Assistant answers served from the LRU cache",
		},
	)

	AssistantAPILatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arcanum_assistant_api_latency_seconds",
			Help:    "Completion API call latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	AssistantErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcanum_assistant_errors_total",
			Help: "Assistant errors by type",
		},
		[]string{"type"}, // "network", "read", "api", "parse", "empty"
	)

	// Database Metrics
	CardDatabaseSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arcanum_card_database_size",
			Help: "Number of card printings in the database",
		},
	)

	RuleDatabaseSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arcanum_rule_database_size",
			Help: "Number of comprehensive-rules entries in the database",
		},
	)

	SetDatabaseSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arcanum_set_database_size",
			Help: "Number of sets in the database",
		},
	)
)
