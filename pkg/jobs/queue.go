// Package jobs implements the batch job queue: bounded-concurrency
// execution of long-running import/match/scan work with progress reporting,
// cooperative cancellation and persisted recovery of in-flight state.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var (
	// ErrJobNotFound is returned when a job id is unknown
	ErrJobNotFound = errors.New("job not found")

	// ErrJobRunning is returned when a processing job is deleted
	ErrJobRunning = errors.New("job is processing")

	// ErrNoRunner is returned when no runner is registered for a job kind
	ErrNoRunner = errors.New("no runner registered for job kind")
)

// DefaultMaxConcurrent is the default number of jobs processing at once
const DefaultMaxConcurrent = 3

// Runner executes one job kind. Runners must poll Handle.Cancelled between
// units of work and return promptly once it reports true; the job record is
// already cancelled at that point and the return value is discarded. A
// non-nil error fails the job.
type Runner func(ctx context.Context, h *Handle) (result []byte, err error)

// QueueConfig contains configuration for the job queue
type QueueConfig struct {
	MaxConcurrent int // Maximum jobs processing at once (default: 3)
}

// DefaultQueueConfig returns default queue configuration
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxConcurrent: DefaultMaxConcurrent,
	}
}

// Queue owns all job records. The mutex is the serialization point for every
// read or mutation of a job's fields; runners only touch records through
// their Handle. At most MaxConcurrent jobs are processing at once; when a
// slot frees on a terminal transition, the oldest pending job is promoted.
type Queue struct {
	logger ectologger.Logger
	store  Store
	config QueueConfig

	mu      sync.Mutex
	jobs    map[string]*models.BatchJob
	order   []string // job ids in creation order
	runners map[models.BatchJobKind]Runner
	running int
}

// NewQueue creates a new job queue backed by store.
func NewQueue(logger ectologger.Logger, store Store, config QueueConfig) *Queue {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultMaxConcurrent
	}

	return &Queue{
		logger:  logger,
		store:   store,
		config:  config,
		jobs:    make(map[string]*models.BatchJob),
		runners: make(map[models.BatchJobKind]Runner),
	}
}

// RegisterRunner registers the runner for a job kind. Must be called before
// jobs of that kind are started.
func (q *Queue) RegisterRunner(kind models.BatchJobKind, runner Runner) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.runners[kind] = runner
}

// Restore reconstructs the queue from the store. Any job found processing is
// demoted back to pending and its partial work discarded; restart never
// trusts in-flight progress. Demoted jobs re-enter through promotion, so
// register runners before calling Restore.
func (q *Queue) Restore(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "jobs.Queue.Restore")
	defer span.End()

	persisted, err := q.store.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list persisted jobs: %w", err)
	}

	sort.Slice(persisted, func(i, j int) bool {
		return persisted[i].CreatedAt.Before(persisted[j].CreatedAt)
	})

	q.mu.Lock()
	defer q.mu.Unlock()

	demoted := 0
	for _, job := range persisted {
		if job.Status == models.BatchJobStatusProcessing {
			job.Status = models.BatchJobStatusPending
			job.ProcessedItems = 0
			job.Progress = 0
			job.StartedAt = nil
			job.UpdatedAt = time.Now().UTC()
			demoted++
			q.persistLocked(ctx, job)
		}
		q.jobs[job.ID] = job
		q.order = append(q.order, job.ID)
	}

	q.promoteLocked(ctx)

	q.logger.WithContext(ctx).WithFields(map[string]any{
		"job_count": len(persisted),
		"demoted":   demoted,
	}).Info("Job queue restored")

	return nil
}

// CreateJob creates a new job in pending status. Always succeeds.
func (q *Queue) CreateJob(ctx context.Context, req models.CreateBatchJobRequest) *models.BatchJob {
	ctx, span := tracing.StartSpan(ctx, "jobs.Queue.CreateJob")
	defer span.End()

	now := time.Now().UTC()
	job := &models.BatchJob{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Kind:       req.Kind,
		Status:     models.BatchJobStatusPending,
		TotalItems: req.TotalItems,
		Metadata:   req.Metadata,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.order = append(q.order, job.ID)
	q.persistLocked(ctx, job)
	clone := job.Clone()
	q.mu.Unlock()

	q.logger.WithContext(ctx).WithFields(map[string]any{
		"job_id": job.ID,
		"kind":   job.Kind,
	}).Info("Job created")

	return clone
}

// StartJob transitions a pending job to processing and begins its work loop.
// Returns false without error when the job is not pending or no concurrency
// slot is available; the job stays pending and is promoted when a slot frees.
func (q *Queue) StartJob(ctx context.Context, id string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "jobs.Queue.StartJob")
	defer span.End()

	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return false, ErrJobNotFound
	}
	if _, ok := q.runners[job.Kind]; !ok {
		return false, fmt.Errorf("%w: %s", ErrNoRunner, job.Kind)
	}
	if job.Status != models.BatchJobStatusPending || q.running >= q.config.MaxConcurrent {
		return false, nil
	}

	q.startLocked(ctx, job)
	return true, nil
}

// startLocked transitions job to processing and spawns its work loop.
// Caller holds the lock, job is pending and a slot is available.
func (q *Queue) startLocked(ctx context.Context, job *models.BatchJob) {
	now := time.Now().UTC()
	job.Status = models.BatchJobStatusProcessing
	job.StartedAt = &now
	job.UpdatedAt = now
	q.running++
	metrics.JobsInFlight.Inc()
	q.persistLocked(ctx, job)

	q.logger.WithContext(ctx).WithFields(map[string]any{
		"job_id": job.ID,
		"kind":   job.Kind,
	}).Info("Job started")

	runner := q.runners[job.Kind]
	go q.run(job.ID, job.Kind, runner)
}

// run is the work loop for one job. It owns no job state directly; all
// reads and writes go through the queue's lock.
func (q *Queue) run(id string, kind models.BatchJobKind, runner Runner) {
	ctx := appctx.SetJobID(context.Background(), id)
	ctx, span := tracing.StartSpan(ctx, "jobs.Queue.run")
	defer span.End()

	start := time.Now()
	var result []byte
	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job panicked: %v", r)
			}
		}()
		result, err = runner(ctx, &Handle{queue: q, id: id})
	}()

	q.finish(ctx, id, kind, result, err, time.Since(start))
}

// finish applies the terminal transition for a job that left its work loop,
// then promotes the oldest pending job into the freed slot.
func (q *Queue) finish(ctx context.Context, id string, kind models.BatchJobKind, result []byte, runErr error, duration time.Duration) {
	q.mu.Lock()

	q.running--
	metrics.JobsInFlight.Dec()

	job, ok := q.jobs[id]
	if ok {
		now := time.Now().UTC()
		switch {
		case job.Status == models.BatchJobStatusCancelled:
			// Cancelled while running; the terminal transition already
			// happened in CancelJob.
		case runErr != nil:
			msg := runErr.Error()
			job.Status = models.BatchJobStatusFailed
			job.Error = &msg
			job.CompletedAt = &now
		default:
			job.Status = models.BatchJobStatusCompleted
			job.Result = result
			job.Progress = 100
			job.CompletedAt = &now
		}
		job.UpdatedAt = now
		q.persistLocked(ctx, job)
		metrics.RecordJobProcessed(string(kind), string(job.Status), duration.Seconds())
	}

	q.promoteLocked(ctx)
	status := models.BatchJobStatus("")
	if ok {
		status = job.Status
	}
	q.mu.Unlock()

	log := q.logger.WithContext(ctx).WithFields(map[string]any{
		"job_id":   id,
		"status":   status,
		"duration": duration.String(),
	})
	if runErr != nil && status == models.BatchJobStatusFailed {
		log.WithError(runErr).Warn("Job failed")
	} else {
		log.Info("Job finished")
	}
}

// promoteLocked starts pending jobs, FIFO by creation time, while slots are
// free. Jobs whose kind has no registered runner are left pending.
func (q *Queue) promoteLocked(ctx context.Context) {
	for _, id := range q.order {
		if q.running >= q.config.MaxConcurrent {
			return
		}
		job, ok := q.jobs[id]
		if !ok || job.Status != models.BatchJobStatusPending {
			continue
		}
		if _, ok := q.runners[job.Kind]; !ok {
			continue
		}
		q.startLocked(ctx, job)
	}
}

// UpdateProgress records processed items for a processing job and recomputes
// its percentage. Unknown ids and regressions are ignored; processedItems is
// monotonically non-decreasing while processing.
func (q *Queue) UpdateProgress(ctx context.Context, id string, processedItems int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok || job.Status != models.BatchJobStatusProcessing {
		return
	}
	if processedItems < job.ProcessedItems {
		return
	}

	job.ProcessedItems = processedItems
	if job.TotalItems > 0 {
		job.Progress = int(float64(processedItems)/float64(job.TotalItems)*100 + 0.5)
		if job.Progress > 100 {
			job.Progress = 100
		}
	}
	job.UpdatedAt = time.Now().UTC()
	q.persistLocked(ctx, job)
}

// CancelJob cancels a pending or processing job. Returns false when the job
// is unknown or already terminal. A processing job's work loop observes the
// cancellation between units of work and aborts as a normal termination.
func (q *Queue) CancelJob(ctx context.Context, id string) bool {
	ctx, span := tracing.StartSpan(ctx, "jobs.Queue.CancelJob")
	defer span.End()

	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok || job.Status.IsTerminal() {
		return false
	}

	wasPending := job.Status == models.BatchJobStatusPending
	now := time.Now().UTC()
	job.Status = models.BatchJobStatusCancelled
	job.CompletedAt = &now
	job.UpdatedAt = now
	q.persistLocked(ctx, job)

	if wasPending {
		metrics.RecordJobProcessed(string(job.Kind), string(job.Status), 0)
	}

	q.logger.WithContext(ctx).WithFields(map[string]any{"job_id": id}).Info("Job cancelled")
	return true
}

// DeleteJob removes a job record. Processing jobs must be cancelled first.
func (q *Queue) DeleteJob(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "jobs.Queue.DeleteJob")
	defer span.End()

	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status == models.BatchJobStatusProcessing {
		return ErrJobRunning
	}

	delete(q.jobs, id)
	for i, jid := range q.order {
		if jid == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}

	if err := q.store.DeleteJob(ctx, id); err != nil {
		q.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"job_id": id}).Warn("Failed to delete persisted job")
	}

	return nil
}

// GetJob returns a copy of one job record.
func (q *Queue) GetJob(_ context.Context, id string) (*models.BatchJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// ListJobs returns copies of every job record in creation order.
func (q *Queue) ListJobs(_ context.Context) []*models.BatchJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]*models.BatchJob, 0, len(q.order))
	for _, id := range q.order {
		if job, ok := q.jobs[id]; ok {
			jobs = append(jobs, job.Clone())
		}
	}
	return jobs
}

// Statistics returns the operational rollup over all job records.
func (q *Queue) Statistics(_ context.Context) models.BatchJobStatistics {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := models.BatchJobStatistics{
		Total:          len(q.jobs),
		CountsByStatus: make(map[models.BatchJobStatus]int),
	}

	var processingSeconds float64
	completed := 0
	failed := 0

	for _, job := range q.jobs {
		stats.CountsByStatus[job.Status]++
		switch job.Status {
		case models.BatchJobStatusCompleted:
			completed++
			if job.StartedAt != nil && job.CompletedAt != nil {
				processingSeconds += job.CompletedAt.Sub(*job.StartedAt).Seconds()
			}
		case models.BatchJobStatusFailed:
			failed++
		}
	}

	if completed > 0 {
		stats.AvgProcessingSeconds = processingSeconds / float64(completed)
	}
	if completed+failed > 0 {
		stats.SuccessRate = float64(completed) / float64(completed+failed)
	}

	return stats
}

// persistLocked snapshots one job to the store. A write failure is logged
// and the in-memory operation continues; progress may be lost on restart.
func (q *Queue) persistLocked(ctx context.Context, job *models.BatchJob) {
	if err := q.store.SaveJob(ctx, job.Clone()); err != nil {
		q.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"job_id": job.ID}).Warn("Failed to persist job snapshot")
	}
}

// Handle is a runner's view of its own job record.
type Handle struct {
	queue *Queue
	id    string
}

// JobID returns the job's id.
func (h *Handle) JobID() string {
	return h.id
}

// Job returns a copy of the job record.
func (h *Handle) Job() (*models.BatchJob, bool) {
	return h.queue.GetJob(context.Background(), h.id)
}

// Cancelled reports whether the job has been cancelled. Runners poll this
// between units of work.
func (h *Handle) Cancelled() bool {
	h.queue.mu.Lock()
	defer h.queue.mu.Unlock()

	job, ok := h.queue.jobs[h.id]
	return ok && job.Status == models.BatchJobStatusCancelled
}

// UpdateProgress records processed items for the job.
func (h *Handle) UpdateProgress(ctx context.Context, processedItems int) {
	h.queue.UpdateProgress(ctx, h.id, processedItems)
}
