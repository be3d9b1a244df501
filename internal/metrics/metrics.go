// Package metrics defines the Prometheus metrics of the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Scraper metrics
	ScraperRequestsTotal   *prometheus.CounterVec
	ScraperDurationSeconds *prometheus.HistogramVec

	// Parser metrics
	ParsedCourses *prometheus.GaugeVec
	ParseErrors   *prometheus.CounterVec

	// Recommendation metrics
	RecommendationsTotal   *prometheus.CounterVec
	RecommendationDuration prometheus.Histogram

	// Bot metrics
	UpdatesTotal           *prometheus.CounterVec
	UpdateDurationSeconds  *prometheus.HistogramVec
	ActiveSessions         prometheus.Gauge
	SessionCleanupsRemoved prometheus.Counter
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		ScraperRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_scraper_requests_total",
				Help: "Total number of scraper requests by program and status",
			},
			[]string{"program", "status"}, // status: success, error
		),

		ScraperDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_scraper_duration_seconds",
				Help:    "Program document retrieval duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"program"},
		),

		ParsedCourses: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "advisor_parsed_courses",
				Help: "Number of courses parsed from the current academic plan by program",
			},
			[]string{"program"},
		),

		ParseErrors: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_parse_errors_total",
				Help: "Total number of academic plan parse failures by program",
			},
			[]string{"program"},
		),

		RecommendationsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_recommendations_total",
				Help: "Total number of recommendation requests by strategy and outcome",
			},
			[]string{"strategy", "outcome"}, // outcome: ok, empty, error
		),

		RecommendationDuration: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advisor_recommendation_duration_seconds",
				Help:    "Recommendation scoring duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),

		UpdatesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_bot_updates_total",
				Help: "Total number of processed bot updates by state and status",
			},
			[]string{"state", "status"}, // status: success, error, ignored
		),

		UpdateDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_bot_update_duration_seconds",
				Help:    "Bot update processing duration in seconds by state",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"state"},
		),

		ActiveSessions: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "advisor_active_sessions",
				Help: "Number of stored conversation sessions",
			},
		),

		SessionCleanupsRemoved: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "advisor_session_cleanup_removed_total",
				Help: "Total number of sessions removed by the expiry cleanup job",
			},
		),
	}
}
