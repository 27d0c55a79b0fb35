package entities

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptSource tells where the diarized utterances came from
type TranscriptSource string

const (
	TranscriptSourceInline     TranscriptSource = "inline"
	TranscriptSourceAssemblyAI TranscriptSource = "assemblyai"
)

// Transcript is one reconciled meeting transcript
type Transcript struct {
	ID             uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID      string           `json:"meeting_id,omitempty" gorm:"type:varchar(255);index"`
	Source         TranscriptSource `json:"source" gorm:"type:varchar(50);not null"`
	ExternalID     *string          `json:"external_id,omitempty" gorm:"type:varchar(255);index"` // provider transcript ID
	MeetingStartMs int64            `json:"meeting_start_ms" gorm:"not null;default:0"`
	RawCount       int              `json:"raw_count" gorm:"not null;default:0"`
	UtteranceCount int              `json:"utterance_count" gorm:"not null;default:0"`
	SpeakerCount   int              `json:"speaker_count" gorm:"not null;default:0"`
	CreatedAt      time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time        `json:"updated_at" gorm:"autoUpdateTime"`

	Utterances []TranscriptUtterance `json:"utterances,omitempty" gorm:"foreignKey:TranscriptID"`
}

// TableName specifies the table name for GORM
func (Transcript) TableName() string {
	return "transcripts"
}

// NewTranscript creates a transcript for a meeting
func NewTranscript(meetingID string, source TranscriptSource, meetingStartMs int64) *Transcript {
	now := time.Now()
	return &Transcript{
		ID:             uuid.New(),
		MeetingID:      meetingID,
		Source:         source,
		MeetingStartMs: meetingStartMs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// SetUtterances replaces the stored rows with attributed utterances in timeline order
func (t *Transcript) SetUtterances(utts []AttributedUtterance) {
	t.Utterances = make([]TranscriptUtterance, 0, len(utts))
	labels := make(map[string]struct{})
	for i, u := range utts {
		t.Utterances = append(t.Utterances, TranscriptUtterance{
			ID:            uuid.New(),
			TranscriptID:  t.ID,
			Position:      i,
			Speaker:       u.Speaker,
			OriginalLabel: u.OriginalLabel,
			Text:          u.Text,
			OriginalText:  u.OriginalText,
			StartMs:       u.StartMs,
			EndMs:         u.EndMs,
			Confidence:    u.Confidence,
		})
		labels[u.OriginalLabel] = struct{}{}
	}
	t.UtteranceCount = len(utts)
	t.SpeakerCount = len(labels)
}

// Attributed converts stored rows back to attributed utterances
func (t *Transcript) Attributed() []AttributedUtterance {
	out := make([]AttributedUtterance, 0, len(t.Utterances))
	for _, u := range t.Utterances {
		out = append(out, u.Attributed())
	}
	return out
}

// TranscriptUtterance is one persisted attributed utterance
type TranscriptUtterance struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TranscriptID  uuid.UUID `json:"transcript_id" gorm:"type:uuid;not null;index"`
	Position      int       `json:"position" gorm:"not null"`
	Speaker       string    `json:"speaker" gorm:"type:varchar(255);not null"`
	OriginalLabel string    `json:"original_label" gorm:"type:varchar(50);not null"`
	Text          string    `json:"text" gorm:"type:text;not null"`
	OriginalText  string    `json:"original_text,omitempty" gorm:"type:text"`
	StartMs       int64     `json:"start_ms" gorm:"not null"`
	EndMs         int64     `json:"end_ms" gorm:"not null"`
	Confidence    float64   `json:"confidence" gorm:"default:0.0"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (TranscriptUtterance) TableName() string {
	return "transcript_utterances"
}

// Attributed converts the row to the engine representation
func (u TranscriptUtterance) Attributed() AttributedUtterance {
	return AttributedUtterance{
		Speaker:       u.Speaker,
		OriginalLabel: u.OriginalLabel,
		Text:          u.Text,
		OriginalText:  u.OriginalText,
		StartMs:       u.StartMs,
		EndMs:         u.EndMs,
		Confidence:    u.Confidence,
	}
}
