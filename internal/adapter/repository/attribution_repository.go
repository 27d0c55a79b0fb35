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

// AttributionRepository handles speaker attribution data operations
type AttributionRepository struct {
	db *gorm.DB
}

var _ repo.AttributionRepository = (*AttributionRepository)(nil)

// NewAttributionRepository creates a new attribution repository
func NewAttributionRepository(db *gorm.DB) *AttributionRepository {
	return &AttributionRepository{db: db}
}

// GetAttributionByID retrieves an attribution with its transcript
func (r *AttributionRepository) GetAttributionByID(ctx context.Context, id uuid.UUID) (*entities.SpeakerAttribution, error) {
	var a entities.SpeakerAttribution
	err := r.db.WithContext(ctx).
		Preload("Transcript").
		Preload("Transcript.Utterances", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// ListAttributionsByTranscript lists attribution runs of a transcript, newest first
func (r *AttributionRepository) ListAttributionsByTranscript(ctx context.Context, transcriptID uuid.UUID) ([]entities.SpeakerAttribution, error) {
	var out []entities.SpeakerAttribution
	if err := r.db.WithContext(ctx).
		Where("transcript_id = ?", transcriptID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateArtifacts persists the artifact keys of an attribution
func (r *AttributionRepository) UpdateArtifacts(ctx context.Context, a *entities.SpeakerAttribution) error {
	if a == nil {
		return errors.New("attribution cannot be nil")
	}
	return r.db.WithContext(ctx).
		Model(&entities.SpeakerAttribution{}).
		Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"artifacts":  a.Artifacts,
			"updated_at": time.Now(),
		}).Error
}
