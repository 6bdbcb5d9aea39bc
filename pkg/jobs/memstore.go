package jobs

import (
	"context"
	"sync"

	"github.com/Ramsey-B/clover/pkg/models"
)

// MemoryStore is an in-memory Store, used in tests and when the service runs
// without a database. Offers no durability across process restarts.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*models.BatchJob
}

// NewMemoryStore creates a new MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*models.BatchJob),
	}
}

// SaveJob upserts one job record
func (s *MemoryStore) SaveJob(_ context.Context, job *models.BatchJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	return nil
}

// DeleteJob removes one job record
func (s *MemoryStore) DeleteJob(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

// ListJobs returns every persisted job record
func (s *MemoryStore) ListJobs(_ context.Context) ([]*models.BatchJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]*models.BatchJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job.Clone())
	}
	return jobs, nil
}
