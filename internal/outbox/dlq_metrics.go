package outbox

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"example.com/fitprogress/internal/logging"
)

var (
	dlqProcessedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "dlq",
		Name:      "messages_processed_total",
		Help:      "Number of DLQ entries handled without error, whether requeued, rescheduled or quarantined.",
	}, []string{"topic", "event_type"})

	dlqRequeuedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "dlq",
		Name:      "messages_requeued_total",
		Help:      "Number of DLQ entries reinserted into the primary outbox.",
	}, []string{"topic", "event_type"})

	dlqQuarantinedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "dlq",
		Name:      "messages_quarantined_total",
		Help:      "Number of DLQ entries quarantined after exhausting retries.",
	}, []string{"topic", "event_type"})

	dlqRetryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "dlq",
		Name:      "retry_scheduled_total",
		Help:      "Number of times a DLQ entry was scheduled for a future retry.",
	}, []string{"topic", "event_type"})

	dlqBacklogGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "progress_service",
		Subsystem: "dlq",
		Name:      "queued_messages",
		Help:      "Current number of DLQ entries still eligible for retry.",
	})

	dlqQuarantineGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "progress_service",
		Subsystem: "dlq",
		Name:      "quarantined_messages",
		Help:      "Current number of quarantined DLQ entries awaiting manual review.",
	})

	dlqAttempts = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "progress_service",
		Subsystem: "dlq",
		Name:      "attempts_before_resolution",
		Help:      "Retries an award or record event needed before it was requeued or quarantined.",
		Buckets:   prometheus.LinearBuckets(0, 1, 8),
	}, []string{"event_type", "resolution"})
)

func init() {
	prometheus.MustRegister(dlqProcessedCounter, dlqRequeuedCounter, dlqQuarantinedCounter, dlqRetryCounter,
		dlqBacklogGauge, dlqQuarantineGauge, dlqAttempts)
}

func recordDLQProcessed(entry dlqEntry) {
	dlqProcessedCounter.WithLabelValues(entry.Topic, entry.EventType).Inc()
}

func recordDLQRequeued(entry dlqEntry) {
	dlqRequeuedCounter.WithLabelValues(entry.Topic, entry.EventType).Inc()
	dlqAttempts.WithLabelValues(entry.EventType, "requeued").Observe(float64(entry.RetryCount))
}

func recordDLQQuarantined(entry dlqEntry) {
	dlqQuarantinedCounter.WithLabelValues(entry.Topic, entry.EventType).Inc()
	dlqAttempts.WithLabelValues(entry.EventType, "quarantined").Observe(float64(entry.RetryCount))
}

func recordDLQRetry(entry dlqEntry) {
	dlqRetryCounter.WithLabelValues(entry.Topic, entry.EventType).Inc()
}

// refreshDLQGauges reads the live and quarantined DLQ sizes in one pass.
func refreshDLQGauges(ctx context.Context, db DB, logger *logging.Logger) {
	var pending, quarantined int64
	err := db.QueryRow(ctx, `SELECT
    COUNT(*) FILTER (WHERE quarantined_at IS NULL),
    COUNT(*) FILTER (WHERE quarantined_at IS NOT NULL)
  FROM outbox_dlq`).Scan(&pending, &quarantined)
	if err != nil {
		logger.Warn("dlq gauge refresh failed", "error", err)
		return
	}
	dlqBacklogGauge.Set(float64(pending))
	dlqQuarantineGauge.Set(float64(quarantined))
}
