// Package batchjob persists batch job snapshots so the queue survives
// restarts.
package batchjob

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Repository handles batch job persistence. Implements jobs.Store.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new batch job repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// SaveJob upserts one job snapshot
func (r *Repository) SaveJob(ctx context.Context, job *models.BatchJob) error {
	ctx, span := tracing.StartSpan(ctx, "batchjob.Repository.SaveJob")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("batch_jobs")
	sb.Cols("id", "name", "kind", "status", "progress", "total_items", "processed_items", "metadata", "result", "error", "created_at", "updated_at", "started_at", "completed_at")
	sb.Values(job.ID, job.Name, job.Kind, job.Status, job.Progress, job.TotalItems, job.ProcessedItems, job.Metadata, job.Result, job.Error, job.CreatedAt, job.UpdatedAt, job.StartedAt, job.CompletedAt)
	sb.SQL(`ON CONFLICT (id) DO UPDATE SET
		status = EXCLUDED.status,
		progress = EXCLUDED.progress,
		processed_items = EXCLUDED.processed_items,
		result = EXCLUDED.result,
		error = EXCLUDED.error,
		updated_at = EXCLUDED.updated_at,
		started_at = EXCLUDED.started_at,
		completed_at = EXCLUDED.completed_at`)

	query, args := sb.Build()
	start := time.Now()
	_, err := r.db.ExecContext(ctx, query, args...)
	metrics.RecordDatabaseQuery("batchjob.save", time.Since(start).Seconds())
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"job_id": job.ID}).Error("Failed to save batch job")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save batch job")
	}

	return nil
}

// DeleteJob removes one job snapshot. Unknown ids are not an error.
func (r *Repository) DeleteJob(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "batchjob.Repository.DeleteJob")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("batch_jobs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	start := time.Now()
	_, err := r.db.ExecContext(ctx, query, args...)
	metrics.RecordDatabaseQuery("batchjob.delete", time.Since(start).Seconds())
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"job_id": id}).Error("Failed to delete batch job")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete batch job")
	}

	return nil
}

// ListJobs returns every persisted job snapshot
func (r *Repository) ListJobs(ctx context.Context) ([]*models.BatchJob, error) {
	ctx, span := tracing.StartSpan(ctx, "batchjob.Repository.ListJobs")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "kind", "status", "progress", "total_items", "processed_items", "metadata", "result", "error", "created_at", "updated_at", "started_at", "completed_at")
	sb.From("batch_jobs")
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	start := time.Now()
	var jobs []*models.BatchJob
	err := r.db.SelectContext(ctx, &jobs, query, args...)
	metrics.RecordDatabaseQuery("batchjob.list", time.Since(start).Seconds())
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list batch jobs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list batch jobs")
	}

	return jobs, nil
}
