package models

import (
	"encoding/json"
	"time"
)

// BatchJobKind identifies what a job does. The queue treats kinds opaquely;
// runners are registered per kind.
type BatchJobKind string

const (
	BatchJobKindMatch         BatchJobKind = "match"
	BatchJobKindDuplicateScan BatchJobKind = "duplicate_scan"
	BatchJobKindImport        BatchJobKind = "import"
	BatchJobKindExport        BatchJobKind = "export"
)

// BatchJobStatus is the lifecycle state of a job.
type BatchJobStatus string

const (
	BatchJobStatusPending    BatchJobStatus = "pending"
	BatchJobStatusProcessing BatchJobStatus = "processing"
	BatchJobStatusCompleted  BatchJobStatus = "completed"
	BatchJobStatusFailed     BatchJobStatus = "failed"
	BatchJobStatusCancelled  BatchJobStatus = "cancelled"
)

// IsTerminal reports whether the status is final. Terminal transitions set
// the completion timestamp exactly once.
func (s BatchJobStatus) IsTerminal() bool {
	return s == BatchJobStatusCompleted || s == BatchJobStatusFailed || s == BatchJobStatusCancelled
}

// BatchJob is one long-running unit of work tracked by the queue. Job
// records are the queue's only shared mutable state; every read or mutation
// goes through the queue's lock.
type BatchJob struct {
	ID             string          `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Kind           BatchJobKind    `json:"kind" db:"kind"`
	Status         BatchJobStatus  `json:"status" db:"status"`
	Progress       int             `json:"progress" db:"progress"` // 0-100
	TotalItems     int             `json:"total_items" db:"total_items"`
	ProcessedItems int             `json:"processed_items" db:"processed_items"`
	Metadata       json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	Result         json.RawMessage `json:"result,omitempty" db:"result"`
	Error          *string         `json:"error,omitempty" db:"error"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty" db:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// Clone returns a deep-enough copy safe to hand outside the queue's lock.
func (j *BatchJob) Clone() *BatchJob {
	cp := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	if j.Error != nil {
		e := *j.Error
		cp.Error = &e
	}
	return &cp
}

// CreateBatchJobRequest is the request to create a new job.
type CreateBatchJobRequest struct {
	Name       string          `json:"name" validate:"required"`
	Kind       BatchJobKind    `json:"kind" validate:"required"`
	TotalItems int             `json:"total_items" validate:"gte=0"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// BatchJobStatistics is the operational rollup consumed by the dashboard.
type BatchJobStatistics struct {
	Total                int                    `json:"total"`
	CountsByStatus       map[BatchJobStatus]int `json:"counts_by_status"`
	AvgProcessingSeconds float64                `json:"avg_processing_seconds"` // completed jobs only
	SuccessRate          float64                `json:"success_rate"`           // completed / (completed+failed)
}
