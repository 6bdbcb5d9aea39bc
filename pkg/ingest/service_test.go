package ingest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/dedup"
	"github.com/Ramsey-B/clover/pkg/jobs"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
)

type capturingPublisher struct {
	mu       sync.Mutex
	outcomes []*kafka.MatchOutcomeMessage
	reports  []*kafka.DuplicateReportMessage
}

func (p *capturingPublisher) PublishMatchOutcome(_ context.Context, msg *kafka.MatchOutcomeMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = append(p.outcomes, msg)
	return nil
}

func (p *capturingPublisher) PublishDuplicateReport(_ context.Context, _ string, msg *kafka.DuplicateReportMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, msg)
	return nil
}

func (p *capturingPublisher) outcomeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.outcomes)
}

func testService(publisher Publisher) *Service {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	registry := matching.NewRegistry([]models.CanonicalInstitution{
		{ID: "1", Name: "GRANT MEDICAL COLLEGE", State: "MAHARASHTRA"},
		{ID: "2", Name: "MAULANA AZAD MEDICAL COLLEGE", State: "DELHI"},
	})
	resolver := matching.NewResolver(logger, registry, matching.DefaultResolverConfig())
	detector := dedup.NewDetector(logger, dedup.DefaultDetectorConfig())
	return NewService(logger, resolver, detector, publisher, ServiceConfig{DuplicateReportTopic: "duplicate-reports"})
}

func TestExtractReference(t *testing.T) {
	t.Run("should probe known name and state fields", func(t *testing.T) {
		name, state, err := ExtractReference(map[string]any{
			"college_name": "GRANT MEDICAL COLLEGE",
			"state":        "MAHARASHTRA",
			"closing_rank": 1200,
		})
		require.NoError(t, err)
		assert.Equal(t, "GRANT MEDICAL COLLEGE", name)
		assert.Equal(t, "MAHARASHTRA", state)
	})

	t.Run("should allow a missing state", func(t *testing.T) {
		name, state, err := ExtractReference(map[string]any{"institution_name": "KEM HOSPITAL"})
		require.NoError(t, err)
		assert.Equal(t, "KEM HOSPITAL", name)
		assert.Equal(t, "", state)
	})

	t.Run("should skip rows with no institution name", func(t *testing.T) {
		_, _, err := ExtractReference(map[string]any{"state": "DELHI"})
		var skip *SkipError
		require.ErrorAs(t, err, &skip)
		assert.Equal(t, "missing institution name", skip.Reason)
	})

	t.Run("should skip rows whose name is blank", func(t *testing.T) {
		_, _, err := ExtractReference(map[string]any{"name": "   "})
		assert.Error(t, err)
	})
}

func TestHandleRowMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("should resolve a row and publish the outcome", func(t *testing.T) {
		publisher := &capturingPublisher{}
		svc := testService(publisher)

		err := svc.HandleRowMessage(ctx, &kafka.ReceivedMessage{
			Row: &kafka.RowMessage{
				Source: "mcc-2024",
				Row:    map[string]any{"institution_name": "GRANT MEDICAL COLLEGE", "state": "MAHARASHTRA"},
			},
		})

		require.NoError(t, err)
		require.Len(t, publisher.outcomes, 1)
		outcome := publisher.outcomes[0]
		assert.Equal(t, models.MatchStageExact, outcome.Stage)
		assert.Equal(t, 1.0, outcome.Confidence)
		require.NotNil(t, outcome.InstitutionID)
		assert.Equal(t, "1", *outcome.InstitutionID)
		assert.Equal(t, "mcc-2024", outcome.Source)
	})

	t.Run("should skip malformed rows without erroring", func(t *testing.T) {
		publisher := &capturingPublisher{}
		svc := testService(publisher)

		err := svc.HandleRowMessage(ctx, &kafka.ReceivedMessage{
			Row: &kafka.RowMessage{Source: "mcc-2024", Row: map[string]any{"quota": "AIQ"}},
		})

		require.NoError(t, err)
		assert.Empty(t, publisher.outcomes)
	})
}

func TestMatchRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("should resolve every row and report the rollup", func(t *testing.T) {
		publisher := &capturingPublisher{}
		svc := testService(publisher)
		queue := jobs.NewQueue(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), jobs.NewMemoryStore(), jobs.DefaultQueueConfig())
		queue.RegisterRunner(models.BatchJobKindMatch, svc.MatchRunner())

		meta, err := json.Marshal(MatchJobMetadata{
			Source: "mcc-2024",
			Rows: []map[string]any{
				{"institution_name": "GRANT MEDICAL COLLEGE", "state": "MAHARASHTRA"},
				{"institution_name": "ZZQX UNRELATED", "state": "DELHI"},
				{"quota": "AIQ"},
			},
		})
		require.NoError(t, err)

		job := queue.CreateJob(ctx, models.CreateBatchJobRequest{
			Name:       "resolve mcc-2024",
			Kind:       models.BatchJobKindMatch,
			TotalItems: 3,
			Metadata:   meta,
		})
		started, err := queue.StartJob(ctx, job.ID)
		require.NoError(t, err)
		require.True(t, started)

		assert.Eventually(t, func() bool {
			got, _ := queue.GetJob(ctx, job.ID)
			return got.Status == models.BatchJobStatusCompleted
		}, 2*time.Second, 5*time.Millisecond)

		done, _ := queue.GetJob(ctx, job.ID)
		var result MatchJobResult
		require.NoError(t, json.Unmarshal(done.Result, &result))
		assert.Equal(t, 1, result.Matched)
		assert.Equal(t, 1, result.Unmatched)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 1, result.ByStage[models.MatchStageExact])
		assert.Equal(t, 100, done.Progress)
		assert.Equal(t, 2, publisher.outcomeCount())
	})
}

func TestScanRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("should scan the batch and publish the report", func(t *testing.T) {
		publisher := &capturingPublisher{}
		svc := testService(publisher)
		queue := jobs.NewQueue(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), jobs.NewMemoryStore(), jobs.DefaultQueueConfig())
		queue.RegisterRunner(models.BatchJobKindDuplicateScan, svc.ScanRunner())

		meta, err := json.Marshal(ScanJobMetadata{
			EntityKind: models.EntityKindInstitution,
			Records: []ScanRecord{
				{ID: "a", Name: "GRANT MEDICAL COLLEGE"},
				{ID: "b", Name: "GRANT MEDICAL COLEGE"},
			},
		})
		require.NoError(t, err)

		job := queue.CreateJob(ctx, models.CreateBatchJobRequest{
			Name:       "scan institutions",
			Kind:       models.BatchJobKindDuplicateScan,
			TotalItems: 2,
			Metadata:   meta,
		})
		started, err := queue.StartJob(ctx, job.ID)
		require.NoError(t, err)
		require.True(t, started)

		assert.Eventually(t, func() bool {
			got, _ := queue.GetJob(ctx, job.ID)
			return got.Status == models.BatchJobStatusCompleted
		}, 2*time.Second, 5*time.Millisecond)

		done, _ := queue.GetJob(ctx, job.ID)
		var report models.DuplicateReport
		require.NoError(t, json.Unmarshal(done.Result, &report))
		assert.Equal(t, 1, report.Summary.GroupCount)
		assert.Equal(t, 2, report.Summary.FlaggedItems)

		require.Len(t, publisher.reports, 1)
		assert.Equal(t, models.EntityKindInstitution, publisher.reports[0].EntityKind)
	})
}
