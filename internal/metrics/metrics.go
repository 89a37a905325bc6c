// Package metrics provides Prometheus metrics for the card arbitrage backend.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arb_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Analysis Metrics
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_analyses_total",
			Help: "Total number of listing analyses by match tier and cache status",
		},
		[]string{"tier", "cached"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arb_analysis_duration_seconds",
			Help:    "Time taken to analyze a single listing",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// Result Cache Metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arb_cache_hits_total",
			Help: "Result cache hit count",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arb_cache_misses_total",
			Help: "Result cache miss count",
		},
	)

	// Title Parser Metrics
	ParserRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_parser_requests_total",
			Help: "Title parser requests by source and result",
		},
		[]string{"source", "result"}, // source: "remote" or "heuristic", result: "success" or "failed"
	)

	// Sales History Metrics
	SalesRecordsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arb_sales_records_total",
			Help: "Number of sale records in the sales history store",
		},
	)

	PurchasesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arb_purchases_total",
			Help: "Total number of purchases recorded",
		},
	)
)

// UpdateSalesMetrics refreshes the sales history size gauge. Called after
// ingestion and purchase writes.
func UpdateSalesMetrics(db *gorm.DB) {
	var count int64
	if err := db.Table("sales_history").Count(&count).Error; err != nil {
		log.Printf("Metrics: failed to count sales records: %v", err)
		return
	}
	SalesRecordsTotal.Set(float64(count))
}
