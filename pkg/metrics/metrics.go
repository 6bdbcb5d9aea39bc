// Package metrics provides Prometheus metrics for the clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolutionsTotal tracks raw reference resolutions by stage
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "resolutions_total",
			Help:      "Total number of raw reference resolutions by stage",
		},
		[]string{"stage"},
	)

	// ResolutionDuration tracks resolution duration in seconds
	ResolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "resolution_duration_seconds",
			Help:      "Duration of raw reference resolutions in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)

	// DuplicateGroupsTotal tracks duplicate groups found by entity kind
	DuplicateGroupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "dedup",
			Name:      "groups_total",
			Help:      "Total number of duplicate groups found by entity kind",
		},
		[]string{"entity_kind"},
	)

	// DuplicateItemsFlagged tracks items flagged as duplicates by entity kind
	DuplicateItemsFlagged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "dedup",
			Name:      "items_flagged_total",
			Help:      "Total number of items flagged as duplicates by entity kind",
		},
		[]string{"entity_kind"},
	)

	// JobsProcessed tracks batch jobs reaching a terminal status
	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "jobs",
			Name:      "processed_total",
			Help:      "Total number of batch jobs reaching a terminal status",
		},
		[]string{"kind", "status"},
	)

	// JobsInFlight tracks jobs currently processing
	JobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clover",
			Subsystem: "jobs",
			Name:      "in_flight",
			Help:      "Number of batch jobs currently processing",
		},
	)

	// JobDuration tracks batch job processing duration in seconds
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Duration of batch job processing in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"kind"},
	)

	// RowsSkipped tracks ingested rows skipped as malformed
	RowsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "ingest",
			Name:      "rows_skipped_total",
			Help:      "Total number of ingested rows skipped as malformed",
		},
		[]string{"reason"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// KafkaMessagesConsumed tracks Kafka messages consumed
	KafkaMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "kafka",
			Name:      "messages_consumed_total",
			Help:      "Total number of messages consumed from Kafka",
		},
		[]string{"topic", "status"},
	)

	// DatabaseQueryDuration tracks database query duration
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// RecordResolution records one raw reference resolution
func RecordResolution(stage string, durationSeconds float64) {
	ResolutionsTotal.WithLabelValues(stage).Inc()
	ResolutionDuration.Observe(durationSeconds)
}

// RecordDuplicateScan records the outcome of one duplicate detection run
func RecordDuplicateScan(entityKind string, groups, flagged int) {
	DuplicateGroupsTotal.WithLabelValues(entityKind).Add(float64(groups))
	DuplicateItemsFlagged.WithLabelValues(entityKind).Add(float64(flagged))
}

// RecordJobProcessed records a batch job reaching a terminal status
func RecordJobProcessed(kind, status string, durationSeconds float64) {
	JobsProcessed.WithLabelValues(kind, status).Inc()
	JobDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordRowSkipped records an ingested row skipped as malformed
func RecordRowSkipped(reason string) {
	RowsSkipped.WithLabelValues(reason).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}

// RecordKafkaConsume records a Kafka consume operation
func RecordKafkaConsume(topic, status string) {
	KafkaMessagesConsumed.WithLabelValues(topic, status).Inc()
}

// RecordDatabaseQuery records the duration of one database query
func RecordDatabaseQuery(operation string, durationSeconds float64) {
	DatabaseQueryDuration.WithLabelValues(operation).Observe(durationSeconds)
}
