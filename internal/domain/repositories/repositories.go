package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
)

// TranscriptRepository persists reconciled transcripts with their utterances
type TranscriptRepository interface {
	// CreateTranscript stores the transcript, its utterances and the given attributions
	// atomically. Nothing is written when any insert fails.
	CreateTranscript(ctx context.Context, t *entities.Transcript, attributions ...*entities.SpeakerAttribution) error
	GetTranscriptByID(ctx context.Context, id uuid.UUID) (*entities.Transcript, error)
	GetTranscriptByExternalID(ctx context.Context, externalID string) (*entities.Transcript, error)
	DeleteTranscript(ctx context.Context, id uuid.UUID) error
}

// AttributionRepository persists attribution outcomes
type AttributionRepository interface {
	GetAttributionByID(ctx context.Context, id uuid.UUID) (*entities.SpeakerAttribution, error)
	ListAttributionsByTranscript(ctx context.Context, transcriptID uuid.UUID) ([]entities.SpeakerAttribution, error)
	UpdateArtifacts(ctx context.Context, a *entities.SpeakerAttribution) error
}

// JobRepository persists background attribution jobs
type JobRepository interface {
	CreateJob(ctx context.Context, job *entities.AttributionJob) error
	GetJobByID(ctx context.Context, id uuid.UUID) (*entities.AttributionJob, error)
	GetJobByExternalID(ctx context.Context, externalID string) (*entities.AttributionJob, error)
	GetJobsForProcessing(ctx context.Context, limit int) ([]entities.AttributionJob, error)
	// ClaimJob moves a job from one of the given statuses to processing.
	// It returns false when another worker got there first.
	ClaimJob(ctx context.Context, id uuid.UUID, from ...entities.AttributionJobStatus) (bool, error)
	MarkAwaitingTranscript(ctx context.Context, id uuid.UUID, externalID string) error
	MarkReady(ctx context.Context, externalID string) (bool, error)
	MarkCompleted(ctx context.Context, id, attributionID uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	IncrementRetryCount(ctx context.Context, id uuid.UUID, errMsg string) error
	// GetStaleJobs lists jobs sitting in status since before the cutoff
	GetStaleJobs(ctx context.Context, status entities.AttributionJobStatus, before time.Time, limit int) ([]entities.AttributionJob, error)
	ResetJob(ctx context.Context, id uuid.UUID, status entities.AttributionJobStatus) error
}
