package entities

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AttributionJobStatus represents the status of an asynchronous attribution job
type AttributionJobStatus string

const (
	JobStatusAwaitingTranscript AttributionJobStatus = "awaiting_transcript" // Submitted to AssemblyAI, waiting for webhook
	JobStatusPending            AttributionJobStatus = "pending"             // Transcript ready, waiting for a worker
	JobStatusProcessing         AttributionJobStatus = "processing"          // Claimed by a worker
	JobStatusCompleted          AttributionJobStatus = "completed"
	JobStatusFailed             AttributionJobStatus = "failed"
	JobStatusRetrying           AttributionJobStatus = "retrying"
	JobStatusCancelled          AttributionJobStatus = "cancelled"
)

// AttributionJob attributes a provider transcript in the background
type AttributionJob struct {
	ID            uuid.UUID            `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID     string               `json:"meeting_id,omitempty" gorm:"type:varchar(255);index"`
	Status        AttributionJobStatus `json:"status" gorm:"type:varchar(50);not null;index;default:'pending'"`
	ExternalID    *string              `json:"external_id,omitempty" gorm:"type:varchar(255);index"` // AssemblyAI transcript ID
	AudioURL      string               `json:"audio_url,omitempty" gorm:"type:text"`
	AttributionID *uuid.UUID           `json:"attribution_id,omitempty" gorm:"type:uuid;index"`

	StartedAt   *time.Time `json:"started_at,omitempty" gorm:"type:timestamp"`
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"type:timestamp"`
	RetryCount  int        `json:"retry_count" gorm:"type:integer;default:0"`
	MaxRetries  int        `json:"max_retries" gorm:"type:integer;default:3"`
	LastError   *string    `json:"last_error,omitempty" gorm:"type:text"`

	Input JobInput `json:"input" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// JobInput carries everything but the utterances, which are fetched from the provider
type JobInput struct {
	Roster         Roster          `json:"roster"`
	SpeakerChanges []SpeakerChange `json:"speaker_changes,omitempty"`
	MeetingStartMs int64           `json:"meeting_start_ms"`
	Formats        []string        `json:"formats,omitempty"`
}

// Scan implements sql.Scanner interface for GORM
func (in *JobInput) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, in)
	case string:
		return json.Unmarshal([]byte(v), in)
	}
	return nil
}

// Value implements driver.Valuer interface for GORM
func (in JobInput) Value() (driver.Value, error) {
	return json.Marshal(in)
}

// NewAttributionJob creates a job ready for the worker pool
func NewAttributionJob(meetingID, externalID string, input JobInput, maxRetries int) *AttributionJob {
	now := time.Now()
	job := &AttributionJob{
		ID:         uuid.New(),
		MeetingID:  meetingID,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
		Input:      input,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if externalID != "" {
		job.ExternalID = &externalID
	}
	return job
}

// IsRetryable checks if job can be retried
func (j *AttributionJob) IsRetryable() bool {
	return j.RetryCount < j.MaxRetries && j.Status == JobStatusFailed
}

// IsTerminal reports whether no worker will touch the job again
func (j *AttributionJob) IsTerminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusCancelled:
		return true
	case JobStatusFailed:
		return !j.IsRetryable()
	}
	return false
}

// MarkAwaitingTranscript records the provider transcript the job waits for
func (j *AttributionJob) MarkAwaitingTranscript(externalID string) {
	j.Status = JobStatusAwaitingTranscript
	j.ExternalID = &externalID
	j.UpdatedAt = time.Now()
}

// MarkAsCompleted marks job as completed successfully
func (j *AttributionJob) MarkAsCompleted(attributionID uuid.UUID) {
	j.Status = JobStatusCompleted
	j.AttributionID = &attributionID
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkAsFailed marks job as failed with error message
func (j *AttributionJob) MarkAsFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.LastError = &errMsg
	j.UpdatedAt = time.Now()
}

// TableName specifies the table name for GORM
func (AttributionJob) TableName() string {
	return "attribution_jobs"
}
