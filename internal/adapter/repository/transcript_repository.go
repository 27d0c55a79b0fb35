package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
	repo "github.com/johnquangdev/speaker-attribution/internal/domain/repositories"
)

// TranscriptRepository handles transcript data operations
type TranscriptRepository struct {
	db *gorm.DB
}

var _ repo.TranscriptRepository = (*TranscriptRepository)(nil)

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// CreateTranscript stores the transcript, its utterances and its attributions in one transaction
func (r *TranscriptRepository) CreateTranscript(ctx context.Context, transcript *entities.Transcript, attributions ...*entities.SpeakerAttribution) error {
	if transcript == nil {
		return errors.New("transcript cannot be nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		utterances := transcript.Utterances
		if err := tx.Omit("Utterances").Create(transcript).Error; err != nil {
			return fmt.Errorf("failed to insert transcript: %w", err)
		}
		if len(utterances) > 0 {
			if err := tx.CreateInBatches(utterances, 500).Error; err != nil {
				return fmt.Errorf("failed to insert utterances: %w", err)
			}
		}
		for _, a := range attributions {
			if a == nil {
				continue
			}
			a.TranscriptID = transcript.ID
			if err := tx.Omit("Transcript").Create(a).Error; err != nil {
				return fmt.Errorf("failed to insert attribution: %w", err)
			}
		}
		return nil
	})
}

// GetTranscriptByID retrieves a transcript with utterances in timeline order
func (r *TranscriptRepository) GetTranscriptByID(ctx context.Context, id uuid.UUID) (*entities.Transcript, error) {
	return r.first(ctx, "id = ?", id)
}

// GetTranscriptByExternalID retrieves the latest transcript for a provider transcript ID
func (r *TranscriptRepository) GetTranscriptByExternalID(ctx context.Context, externalID string) (*entities.Transcript, error) {
	return r.first(ctx, "external_id = ?", externalID)
}

func (r *TranscriptRepository) first(ctx context.Context, query string, arg interface{}) (*entities.Transcript, error) {
	var transcript entities.Transcript
	err := r.db.WithContext(ctx).
		Preload("Utterances", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where(query, arg).
		Order("created_at DESC").
		First(&transcript).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transcript, nil
}

// DeleteTranscript deletes a transcript; utterances and attributions cascade
func (r *TranscriptRepository) DeleteTranscript(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entities.Transcript{}, id).Error
}
