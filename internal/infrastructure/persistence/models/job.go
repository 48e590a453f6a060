package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/erp/amazon-connector/internal/domain/job"
)

// JobModel is the GORM model for durable queue jobs.
type JobModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	BackendID   uuid.UUID `gorm:"type:uuid;index:idx_job_dedup,priority:1"`
	Operation   string    `gorm:"size:64;not null;index:idx_job_dedup,priority:2"`
	Payload     []byte    `gorm:"type:jsonb"`
	Channel     string    `gorm:"size:64;not null;index:idx_job_claim,priority:1"`
	Status      string    `gorm:"size:16;not null;index:idx_job_claim,priority:2;index:idx_job_dedup,priority:3"`
	Priority    int       `gorm:"not null;default:5"`
	ETA         time.Time `gorm:"column:eta;not null;index:idx_job_claim,priority:3"`
	Retries     int       `gorm:"not null;default:0"`
	MaxRetries  int       `gorm:"not null;default:5"`
	LastError   string    `gorm:"type:text"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for JobModel
func (JobModel) TableName() string {
	return "sync_jobs"
}

// ToDomain converts the model to a domain job.
func (m *JobModel) ToDomain() *job.Job {
	return &job.Job{
		ID:          m.ID,
		BackendID:   m.BackendID,
		Operation:   m.Operation,
		Payload:     m.Payload,
		Channel:     m.Channel,
		Status:      job.Status(m.Status),
		Priority:    m.Priority,
		ETA:         m.ETA,
		Retries:     m.Retries,
		MaxRetries:  m.MaxRetries,
		LastError:   m.LastError,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the model from a domain job.
func (m *JobModel) FromDomain(j *job.Job) {
	m.ID = j.ID
	m.BackendID = j.BackendID
	m.Operation = j.Operation
	m.Payload = j.Payload
	m.Channel = j.Channel
	m.Status = string(j.Status)
	m.Priority = j.Priority
	m.ETA = j.ETA
	m.Retries = j.Retries
	m.MaxRetries = j.MaxRetries
	m.LastError = j.LastError
	m.StartedAt = j.StartedAt
	m.CompletedAt = j.CompletedAt
	m.CreatedAt = j.CreatedAt
	m.UpdatedAt = j.UpdatedAt
}
