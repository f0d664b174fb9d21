// Package jobs defines the update dispatch contract: every incoming chat
// update becomes a job keyed by its session, and jobs with the same key are
// processed one at a time, in arrival order.
package jobs

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UpdateJob carries one transport update to a worker.
type UpdateJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Key selects the worker. Updates of one session share a key.
	Key string `json:"key"`

	// Update is the raw transport update.
	Update tgbotapi.Update `json:"update"`

	// EnqueuedAt is when the job was published.
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Publisher defines the interface for publishing update jobs.
type Publisher interface {
	// Publish enqueues a job. It blocks while the target worker is full.
	Publish(ctx context.Context, job *UpdateJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming update jobs.
type Consumer interface {
	// Start begins consuming jobs. The handler is called for each job.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. Errors are logged by the consumer and never
// retried: a retry could write a ledger row twice.
type JobHandler func(ctx context.Context, job *UpdateJob) error

// Stats are counters exposed on the health endpoint.
type Stats struct {
	Published int64 `json:"published"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Panicked  int64 `json:"panicked"`
	Workers   int   `json:"workers"`
}
