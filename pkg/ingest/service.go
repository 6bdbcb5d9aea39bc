// Package ingest drives resolution and duplicate detection over ingested
// rows, whether they arrive one at a time from Kafka or in bulk as batch
// jobs.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/dedup"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Publisher is the outbound surface the service needs. Satisfied by
// kafka.Producer; nil-able for deployments without a broker.
type Publisher interface {
	PublishMatchOutcome(ctx context.Context, msg *kafka.MatchOutcomeMessage) error
	PublishDuplicateReport(ctx context.Context, topic string, msg *kafka.DuplicateReportMessage) error
}

// ServiceConfig contains configuration for the ingest service
type ServiceConfig struct {
	DuplicateReportTopic string
}

// Service resolves raw references and scans batches for duplicates.
type Service struct {
	logger    ectologger.Logger
	resolver  *matching.Resolver
	detector  *dedup.Detector
	publisher Publisher
	config    ServiceConfig
}

// NewService creates a new ingest service. publisher may be nil; outcomes
// are then only returned to the caller, not published.
func NewService(logger ectologger.Logger, resolver *matching.Resolver, detector *dedup.Detector, publisher Publisher, config ServiceConfig) *Service {
	return &Service{
		logger:    logger,
		resolver:  resolver,
		detector:  detector,
		publisher: publisher,
		config:    config,
	}
}

// Resolve matches one raw reference and records the outcome metric.
func (s *Service) Resolve(ctx context.Context, raw models.RawReference) *models.MatchResult {
	ctx, span := tracing.StartSpan(ctx, "ingest.Service.Resolve")
	defer span.End()

	start := time.Now()
	result := s.resolver.Resolve(ctx, raw)
	metrics.RecordResolution(string(result.Stage), time.Since(start).Seconds())

	return result
}

// Scan runs duplicate detection over one batch and records the outcome
// metric.
func (s *Service) Scan(ctx context.Context, kind models.EntityKind, records []dedup.Record) *models.DuplicateReport {
	ctx, span := tracing.StartSpan(ctx, "ingest.Service.Scan")
	defer span.End()

	report := s.detector.Detect(ctx, kind, records)
	metrics.RecordDuplicateScan(string(kind), report.Summary.GroupCount, report.Summary.FlaggedItems)

	return report
}

// HandleRowMessage is the Kafka consumer handler: resolve one ingested row
// and publish its outcome. Malformed rows are skipped with a recorded
// reason, never surfaced as handler errors.
func (s *Service) HandleRowMessage(ctx context.Context, msg *kafka.ReceivedMessage) error {
	ctx, span := tracing.StartSpan(ctx, "ingest.Service.HandleRowMessage")
	defer span.End()

	if msg.Headers.RequestID != "" {
		ctx = appctx.SetRequestID(ctx, msg.Headers.RequestID)
	}
	ctx = appctx.SetSource(ctx, msg.Row.Source)

	name, state, err := ExtractReference(msg.Row.Row)
	if err != nil {
		var skip *SkipError
		if errors.As(err, &skip) {
			metrics.RecordRowSkipped(skip.Reason)
			s.logger.WithContext(ctx).WithFields(map[string]any{
				"offset": msg.Offset,
				"reason": skip.Reason,
			}).Warn("Skipped malformed row")
			return nil
		}
		return err
	}

	raw := models.RawReference{Name: name, State: state}
	result := s.Resolve(ctx, raw)

	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishMatchOutcome(ctx, kafka.NewMatchOutcomeMessage(raw, result, appctx.GetJobID(ctx), msg.Row.Source))
}
