package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
	repo "github.com/johnquangdev/speaker-attribution/internal/domain/repositories"
)

// JobRepository handles attribution job data operations
type JobRepository struct {
	db *gorm.DB
}

var _ repo.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new job repository
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// CreateJob creates a new attribution job
func (r *JobRepository) CreateJob(ctx context.Context, job *entities.AttributionJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// GetJobByID retrieves a job by ID
func (r *JobRepository) GetJobByID(ctx context.Context, id uuid.UUID) (*entities.AttributionJob, error) {
	var job entities.AttributionJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// GetJobByExternalID retrieves the latest job for an AssemblyAI transcript ID
func (r *JobRepository) GetJobByExternalID(ctx context.Context, externalID string) (*entities.AttributionJob, error) {
	var job entities.AttributionJob
	if err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		Order("created_at DESC").
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// GetJobsForProcessing retrieves pending and retrying jobs, oldest first
func (r *JobRepository) GetJobsForProcessing(ctx context.Context, limit int) ([]entities.AttributionJob, error) {
	var jobs []entities.AttributionJob
	if limit == 0 {
		limit = 10
	}
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []entities.AttributionJobStatus{entities.JobStatusPending, entities.JobStatusRetrying}).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// ClaimJob atomically moves a job to processing. Only one worker sees RowsAffected == 1.
func (r *JobRepository) ClaimJob(ctx context.Context, id uuid.UUID, from ...entities.AttributionJobStatus) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&entities.AttributionJob{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":     entities.JobStatusProcessing,
			"started_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkAwaitingTranscript records the submitted provider transcript ID
func (r *JobRepository) MarkAwaitingTranscript(ctx context.Context, id uuid.UUID, externalID string) error {
	return r.db.WithContext(ctx).
		Model(&entities.AttributionJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      entities.JobStatusAwaitingTranscript,
			"external_id": externalID,
			"updated_at":  time.Now(),
		}).Error
}

// MarkReady releases a job waiting on a provider transcript to the worker pool
func (r *JobRepository) MarkReady(ctx context.Context, externalID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.AttributionJob{}).
		Where("external_id = ? AND status = ?", externalID, entities.JobStatusAwaitingTranscript).
		Updates(map[string]interface{}{
			"status":     entities.JobStatusPending,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkCompleted marks a job as completed with its attribution
func (r *JobRepository) MarkCompleted(ctx context.Context, id, attributionID uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entities.AttributionJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         entities.JobStatusCompleted,
			"attribution_id": attributionID,
			"completed_at":   now,
			"updated_at":     now,
		}).Error
}

// MarkFailed marks a job as failed with error message
func (r *JobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.db.WithContext(ctx).
		Model(&entities.AttributionJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     entities.JobStatusFailed,
			"last_error": errMsg,
			"updated_at": time.Now(),
		}).Error
}

// IncrementRetryCount puts a job back in the queue after a failure
func (r *JobRepository) IncrementRetryCount(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.db.WithContext(ctx).
		Model(&entities.AttributionJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"retry_count": gorm.Expr("retry_count + 1"),
			"status":      entities.JobStatusRetrying,
			"last_error":  errMsg,
			"updated_at":  time.Now(),
		}).Error
}

// GetStaleJobs lists jobs that have not moved out of status since before
func (r *JobRepository) GetStaleJobs(ctx context.Context, status entities.AttributionJobStatus, before time.Time, limit int) ([]entities.AttributionJob, error) {
	var jobs []entities.AttributionJob
	if limit == 0 {
		limit = 10
	}
	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", status, before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// ResetJob moves a job to status and refreshes its timestamp
func (r *JobRepository) ResetJob(ctx context.Context, id uuid.UUID, status entities.AttributionJobStatus) error {
	return r.db.WithContext(ctx).
		Model(&entities.AttributionJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}
