package attribution

import (
	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
)

// CreateAttributionRequest attributes speakers synchronously.
// Utterances come inline, or are fetched from AssemblyAI by transcript_id.
type CreateAttributionRequest struct {
	MeetingID      string                   `json:"meeting_id,omitempty" validate:"omitempty,max=255"`
	TranscriptID   string                   `json:"transcript_id,omitempty" validate:"omitempty,max=255"`
	Utterances     []entities.Utterance     `json:"utterances,omitempty"`
	Roster         entities.Roster          `json:"roster"`
	SpeakerChanges []entities.SpeakerChange `json:"speaker_changes,omitempty" validate:"omitempty,dive"`
	MeetingStartMs int64                    `json:"meeting_start_ms" validate:"gte=0"`
	Formats        []string                 `json:"formats,omitempty" validate:"omitempty,dive,oneof=flat labeled labels report json"`
}

// CreateJobRequest queues attribution of an AssemblyAI transcript, or of audio to be diarized first
type CreateJobRequest struct {
	MeetingID        string                   `json:"meeting_id,omitempty" validate:"omitempty,max=255"`
	TranscriptID     string                   `json:"transcript_id,omitempty" validate:"omitempty,max=255"`
	AudioURL         string                   `json:"audio_url,omitempty" validate:"omitempty,url"`
	SpeakersExpected int                      `json:"speakers_expected,omitempty" validate:"gte=0,lte=50"`
	Roster           entities.Roster          `json:"roster"`
	SpeakerChanges   []entities.SpeakerChange `json:"speaker_changes,omitempty" validate:"omitempty,dive"`
	MeetingStartMs   int64                    `json:"meeting_start_ms" validate:"gte=0"`
	Formats          []string                 `json:"formats,omitempty" validate:"omitempty,dive,oneof=flat labeled labels report json"`
}

// RenderRequest selects the rendering of a stored attribution
type RenderRequest struct {
	ID     string `param:"id" validate:"required,uuid"`
	Format string `query:"format" validate:"omitempty,oneof=flat labeled labels report json"`
}
