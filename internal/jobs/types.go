// Package jobs defines the asynchronous job contracts used to run user
// syncs off the request path. The API publishes a job and returns; a
// worker consumes it and drives the sync orchestrator.
package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeSyncUser represents a per-user sync cycle.
	JobTypeSyncUser JobType = "sync_user"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// SyncUserJob asks a worker to run one sync cycle for one user.
type SyncUserJob struct {
	JobID string `json:"job_id"`

	// UserID is the user whose provider data should be pulled.
	UserID string `json:"user_id"`

	// Forced clears the last-sync timestamp before the cycle, widening
	// the fetch window back to the full lookback.
	Forced bool `json:"forced"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains failure details for failed or retrying jobs.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *SyncUserJob) GetID() string        { return j.JobID }
func (j *SyncUserJob) GetType() JobType     { return JobTypeSyncUser }
func (j *SyncUserJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues jobs. The in-memory queue serves single-instance
// deployments; the interface leaves room for Cloud Tasks or Pub/Sub.
type Publisher interface {
	PublishSyncUser(ctx context.Context, job *SyncUserJob) error
	Close() error
}

// Consumer pulls jobs off a queue and hands them to a handler.
type Consumer interface {
	// Start begins consuming jobs. The handler is called for each job
	// received and should return an error to trigger a retry.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs.
	Stop(ctx context.Context) error
}

// JobHandler processes one job.
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state for the status surface.
type JobStore interface {
	SaveJob(ctx context.Context, job *SyncUserJob) error
	GetJob(ctx context.Context, jobID string) (*SyncUserJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*SyncUserJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	UserID string
	Status JobStatus
	Limit  int
	Offset int
}
