package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/tabwatch/tabwatch/internal/models"
)

// JobType represents the type of sync job.
type JobType string

const (
	// JobTypeSessionSync carries one ended session to the remote store.
	JobTypeSessionSync JobType = "session_sync"
	// JobTypeDailySummary carries a finished day's aggregate.
	JobTypeDailySummary JobType = "daily_summary"
)

// Job is one unit of sync work queued for the remote store.
type Job struct {
	ID       uuid.UUID `json:"id"`
	Type     JobType   `json:"type"`
	DeviceID string    `json:"device_id"`
	// Session is set for session_sync jobs.
	Session *models.Session `json:"session,omitempty"`
	// Summary is set for daily_summary jobs.
	Summary *models.DailyStats `json:"summary,omitempty"`
	// NotBefore is the earliest time to process the job (nil = immediate).
	NotBefore *time.Time `json:"not_before,omitempty"`
	// NotAfter is the latest useful processing time (nil = no expiration).
	NotAfter   *time.Time `json:"not_after,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

// NewSessionSyncJob creates a job carrying one ended session.
func NewSessionSyncJob(deviceID string, session *models.Session) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeSessionSync,
		DeviceID:   deviceID,
		Session:    session,
		CreatedAt:  time.Now(),
		MaxRetries: 3,
	}
}

// NewDailySummaryJob creates a job carrying a finished day's aggregate.
func NewDailySummaryJob(deviceID string, summary *models.DailyStats) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeDailySummary,
		DeviceID:   deviceID,
		Summary:    summary,
		CreatedAt:  time.Now(),
		MaxRetries: 3,
	}
}

// ShouldProcess checks whether the job is inside its processing window.
func (j *Job) ShouldProcess() bool {
	now := time.Now()
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired checks whether the job is past its NotAfter deadline.
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks whether the job has retry budget left.
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count.
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
