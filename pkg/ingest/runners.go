package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/dedup"
	"github.com/Ramsey-B/clover/pkg/jobs"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
)

// MatchJobMetadata is the payload of a match job: the rows to resolve.
type MatchJobMetadata struct {
	Source string           `json:"source"`
	Rows   []map[string]any `json:"rows"`
}

// MatchJobResult is the rollup stored on a completed match job.
type MatchJobResult struct {
	Matched     int                       `json:"matched"`
	Unmatched   int                       `json:"unmatched"`
	Skipped     int                       `json:"skipped"`
	NeedsReview int                       `json:"needs_review"`
	ByStage     map[models.MatchStage]int `json:"by_stage"`
}

// ScanJobMetadata is the payload of a duplicate scan job.
type ScanJobMetadata struct {
	EntityKind models.EntityKind `json:"entity_kind"`
	Records    []ScanRecord      `json:"records"`
}

// ScanRecord is one record submitted to a duplicate scan job.
type ScanRecord struct {
	ID   string         `json:"id"`
	Name string         `json:"name,omitempty"`
	Raw  map[string]any `json:"raw,omitempty"`
}

// MatchRunner returns the queue runner for match jobs. One row is one unit
// of work; cancellation is observed between rows.
func (s *Service) MatchRunner() jobs.Runner {
	return func(ctx context.Context, h *jobs.Handle) ([]byte, error) {
		job, ok := h.Job()
		if !ok {
			return nil, fmt.Errorf("job %s not found", h.JobID())
		}

		var meta MatchJobMetadata
		if err := json.Unmarshal(job.Metadata, &meta); err != nil {
			return nil, fmt.Errorf("invalid match job metadata: %w", err)
		}

		ctx = appctx.SetSource(ctx, meta.Source)
		result := MatchJobResult{ByStage: make(map[models.MatchStage]int)}

		for i, row := range meta.Rows {
			if h.Cancelled() {
				return nil, nil
			}

			name, state, err := ExtractReference(row)
			if err != nil {
				var skip *SkipError
				if errors.As(err, &skip) {
					metrics.RecordRowSkipped(skip.Reason)
					result.Skipped++
					h.UpdateProgress(ctx, i+1)
					continue
				}
				return nil, err
			}

			raw := models.RawReference{Name: name, State: state}
			match := s.Resolve(ctx, raw)

			result.ByStage[match.Stage]++
			if match.IsMatch() {
				result.Matched++
			} else {
				result.Unmatched++
			}
			if match.NeedsReview() {
				result.NeedsReview++
			}

			if s.publisher != nil {
				outcome := kafka.NewMatchOutcomeMessage(raw, match, h.JobID(), meta.Source)
				if err := s.publisher.PublishMatchOutcome(ctx, outcome); err != nil {
					s.logger.WithContext(ctx).WithError(err).Warn("Failed to publish match outcome")
				}
			}

			h.UpdateProgress(ctx, i+1)
		}

		return json.Marshal(result)
	}
}

// ScanRunner returns the queue runner for duplicate scan jobs. The
// detection pass over the batch is a single unit of work.
func (s *Service) ScanRunner() jobs.Runner {
	return func(ctx context.Context, h *jobs.Handle) ([]byte, error) {
		job, ok := h.Job()
		if !ok {
			return nil, fmt.Errorf("job %s not found", h.JobID())
		}

		var meta ScanJobMetadata
		if err := json.Unmarshal(job.Metadata, &meta); err != nil {
			return nil, fmt.Errorf("invalid scan job metadata: %w", err)
		}
		if meta.EntityKind == "" {
			return nil, fmt.Errorf("scan job missing entity kind")
		}

		if h.Cancelled() {
			return nil, nil
		}

		records := make([]dedup.Record, len(meta.Records))
		for i, r := range meta.Records {
			records[i] = dedup.Record{ID: r.ID, Name: r.Name, Raw: r.Raw}
		}

		report := s.Scan(ctx, meta.EntityKind, records)
		h.UpdateProgress(ctx, len(records))

		if s.publisher != nil && s.config.DuplicateReportTopic != "" {
			msg := &kafka.DuplicateReportMessage{
				EntityKind: meta.EntityKind,
				Report:     report,
				JobID:      h.JobID(),
				Timestamp:  time.Now().UTC(),
			}
			if err := s.publisher.PublishDuplicateReport(ctx, s.config.DuplicateReportTopic, msg); err != nil {
				s.logger.WithContext(ctx).WithError(err).Warn("Failed to publish duplicate report")
			}
		}

		return json.Marshal(report)
	}
}
