package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	VerificationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idverify_verification_duration_seconds",
			Help:    "End-to-end verification duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"mode"},
	)

	VerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idverify_verifications_total",
			Help: "Verifications by recommendation and verification level",
		},
		[]string{"recommendation", "level"},
	)

	MatchPercentage = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "idverify_match_percentage",
			Help:    "Share of compared fields that matched",
			Buckets: []float64{0, 25, 50, 70, 90, 100},
		},
	)

	FieldComparisons = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idverify_field_comparisons_total",
			Help: "Field comparisons by field and outcome",
		},
		[]string{"field", "outcome"},
	)

	ExtractionTier = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idverify_extracted_fields_total",
			Help: "Extracted fields by strategy tier",
		},
		[]string{"tier"},
	)

	CollaboratorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idverify_collaborator_failures_total",
			Help: "OCR and classifier failures converted to degraded results",
		},
		[]string{"collaborator"},
	)

	ClassifierConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idverify_classifier_confidence",
			Help:    "Classifier confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{"source"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idverify_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "idverify_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

var once sync.Once

// Init registers the collectors with the default registry. Safe to call
// more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			VerificationDuration,
			VerificationsTotal,
			MatchPercentage,
			FieldComparisons,
			ExtractionTier,
			CollaboratorFailures,
			ClassifierConfidence,
			HTTPRequests,
			RateLimited,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
