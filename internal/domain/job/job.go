// Package job holds the durable queue entries scheduled sync work runs as.
package job

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrJobNotFound          = errors.New("job: not found")
	ErrJobOperationRequired = errors.New("job: operation is required")
	ErrJobNotRunnable       = errors.New("job: not in a runnable state")
	ErrJobNotStarted        = errors.New("job: not started")
)

// Status is the job state machine:
// pending -> enqueued -> started -> done | failed,
// with failed jobs returning to pending while retries remain.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusEnqueued Status = "ENQUEUED"
	StatusStarted  Status = "STARTED"
	StatusDone     Status = "DONE"
	StatusFailed   Status = "FAILED"
)

// Retry configuration. Backoff doubles per attempt from the base and never
// exceeds the cap.
const (
	DefaultMaxRetries = 5
	BaseBackoff       = time.Minute
	MaxBackoff        = 30 * time.Minute
)

// ActiveStatuses are the states that make a (backend, operation) pair count
// as already scheduled for deduplication.
var ActiveStatuses = []Status{StatusPending, StatusEnqueued, StatusStarted}

// Job is one unit of scheduled work: a sync operation bound to a backend,
// with an optional payload, ordered by priority (lower runs first) and
// delayed until ETA.
type Job struct {
	ID        uuid.UUID
	BackendID uuid.UUID
	// Operation names the registered handler that executes the job
	Operation string
	Payload   []byte
	// Channel groups jobs for worker pools
	Channel  string
	Status   Status
	Priority int
	// ETA is the earliest time the job may run
	ETA         time.Time
	Retries     int
	MaxRetries  int
	LastError   string
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New creates a pending job. The payload is JSON-encoded; a nil payload is
// stored as null.
func New(backendID uuid.UUID, operation, channel string, payload any, priority int, eta time.Time) (*Job, error) {
	if operation == "" {
		return nil, ErrJobOperationRequired
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if eta.IsZero() {
		eta = now
	}
	return &Job{
		ID:         uuid.New(),
		BackendID:  backendID,
		Operation:  operation,
		Payload:    encoded,
		Channel:    channel,
		Status:     StatusPending,
		Priority:   priority,
		ETA:        eta,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// DecodePayload unmarshals the stored payload into target.
func (j *Job) DecodePayload(target any) error {
	if len(j.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(j.Payload, target)
}

// Runnable reports whether the job may be claimed now.
func (j *Job) Runnable(now time.Time) bool {
	return j.Status == StatusPending && !j.ETA.After(now)
}

// MarkStarted transitions a claimed job to started.
func (j *Job) MarkStarted() error {
	if j.Status != StatusPending && j.Status != StatusEnqueued {
		return ErrJobNotRunnable
	}
	now := time.Now()
	j.Status = StatusStarted
	j.StartedAt = &now
	j.UpdatedAt = now
	return nil
}

// MarkDone transitions started -> done.
func (j *Job) MarkDone() error {
	if j.Status != StatusStarted {
		return ErrJobNotStarted
	}
	now := time.Now()
	j.Status = StatusDone
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// MarkFailed records a failed attempt. While retries remain the job returns
// to pending with an exponentially backed-off ETA; otherwise it stays
// failed.
func (j *Job) MarkFailed(errMsg string) {
	j.Retries++
	j.LastError = errMsg
	now := time.Now()
	j.UpdatedAt = now

	if j.Retries >= j.MaxRetries {
		j.Status = StatusFailed
		j.CompletedAt = &now
		return
	}
	j.Status = StatusPending
	j.ETA = now.Add(Backoff(j.Retries))
}

// Backoff returns the delay before the given retry attempt.
func Backoff(retries int) time.Duration {
	if retries < 1 {
		return BaseBackoff
	}
	backoff := BaseBackoff * time.Duration(1<<uint(retries-1))
	if backoff > MaxBackoff || backoff <= 0 {
		return MaxBackoff
	}
	return backoff
}

// IsActive reports whether the job still counts for deduplication.
func (j *Job) IsActive() bool {
	switch j.Status {
	case StatusPending, StatusEnqueued, StatusStarted:
		return true
	default:
		return false
	}
}
