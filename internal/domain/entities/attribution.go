package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SpeakerAttribution is the stored outcome of one attribution run over a transcript
type SpeakerAttribution struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TranscriptID uuid.UUID `json:"transcript_id" gorm:"type:uuid;not null;index"`
	Outcome      string    `json:"outcome" gorm:"type:varchar(50);not null"`
	Strategy     string    `json:"strategy" gorm:"type:varchar(50);not null"`

	Mapping      datatypes.JSONType[Mapping]        `json:"mapping" gorm:"type:jsonb"`
	Stats        datatypes.JSONType[[]SpeakerStats] `json:"stats" gorm:"type:jsonb"`
	Participants datatypes.JSONType[[]string]       `json:"participants" gorm:"type:jsonb"`
	// Artifacts maps rendering format to its object key
	Artifacts datatypes.JSONType[map[string]string] `json:"artifacts,omitempty" gorm:"type:jsonb"`
	// Result is the full engine result document
	Result datatypes.JSON `json:"result,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Transcript *Transcript `json:"transcript,omitempty" gorm:"foreignKey:TranscriptID"`
}

// TableName specifies the table name for GORM
func (SpeakerAttribution) TableName() string {
	return "speaker_attributions"
}

// NewSpeakerAttribution creates an attribution record for a transcript
func NewSpeakerAttribution(transcriptID uuid.UUID, outcome, strategy string, mapping Mapping) *SpeakerAttribution {
	now := time.Now()
	return &SpeakerAttribution{
		ID:           uuid.New(),
		TranscriptID: transcriptID,
		Outcome:      outcome,
		Strategy:     strategy,
		Mapping:      datatypes.NewJSONType(mapping.Clone()),
		Artifacts:    datatypes.NewJSONType(map[string]string{}),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetArtifact records the object key of a rendering
func (a *SpeakerAttribution) SetArtifact(format, objectKey string) {
	artifacts := map[string]string{}
	for k, v := range a.Artifacts.Data() {
		artifacts[k] = v
	}
	artifacts[format] = objectKey
	a.Artifacts = datatypes.NewJSONType(artifacts)
}
