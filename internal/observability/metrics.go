package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	achievementsAwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "achievements",
		Name:      "awarded_total",
		Help:      "Number of achievements newly awarded, labeled by achievement type.",
	}, []string{"achievement_type"})

	personalRecordsUpdated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "records",
		Name:      "updated_total",
		Help:      "Number of personal records set or improved.",
	}, []string{"record_type", "sport_type"})

	evaluationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "progress_service",
		Subsystem: "engine",
		Name:      "operation_duration_seconds",
		Help:      "Time spent in progress operations including store round trips.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"operation"})

	validationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "ingestion",
		Name:      "payload_validation_failures_total",
		Help:      "Number of activities rejected because their sport payload failed validation.",
	}, []string{"sport_type"})

	lastEvaluationGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "progress_service",
		Subsystem: "engine",
		Name:      "last_evaluation_timestamp_seconds",
		Help:      "Unix timestamp of the most recent achievement evaluation.",
	})
)

func init() {
	prometheus.MustRegister(achievementsAwarded, personalRecordsUpdated, evaluationDuration, validationFailures, lastEvaluationGauge)
}

// RecordAchievementAwarded counts a newly inserted award.
func RecordAchievementAwarded(achievementType string) {
	achievementsAwarded.WithLabelValues(achievementType).Inc()
}

// RecordPersonalRecord counts a stored record improvement.
func RecordPersonalRecord(recordType, sportType string) {
	personalRecordsUpdated.WithLabelValues(recordType, sportType).Inc()
}

// ObserveOperation records how long an operation took since start.
func ObserveOperation(operation string, start time.Time) {
	evaluationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordValidationFailure counts a rejected sport payload.
func RecordValidationFailure(sportType string) {
	validationFailures.WithLabelValues(sportType).Inc()
}

// RecordEvaluation updates the evaluation watermark gauge.
func RecordEvaluation(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastEvaluationGauge.Set(float64(ts.Unix()))
}
