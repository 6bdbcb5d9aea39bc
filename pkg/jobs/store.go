package jobs

import (
	"context"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Store persists job records so the queue can be reconstructed after a
// restart. Snapshots are written after every mutation; a write failure is
// degraded-mode (progress may be lost on restart), never fatal to the
// in-memory operation.
type Store interface {
	// SaveJob upserts one job record.
	SaveJob(ctx context.Context, job *models.BatchJob) error

	// DeleteJob removes one job record. Unknown ids are not an error.
	DeleteJob(ctx context.Context, id string) error

	// ListJobs returns every persisted job record.
	ListJobs(ctx context.Context) ([]*models.BatchJob, error)
}
