package transcript

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/attribution"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/report"
	"github.com/johnquangdev/speaker-attribution/pkg/ai"
)

// UtteranceProvider is the diarization backend utterances are fetched from
type UtteranceProvider interface {
	Configured() bool
	FetchUtterances(ctx context.Context, transcriptID string) (*ai.ProviderTranscript, error)
	Submit(ctx context.Context, audioURL string, speakersExpected int) (string, error)
}

// ArtifactStore keeps rendered transcripts
type ArtifactStore interface {
	Upload(ctx context.Context, key string, content []byte, contentType string) error
	URL(ctx context.Context, key string) (string, error)
}

// ProcessRequest is one synchronous attribution request.
// Utterances come inline, or from the provider when ExternalID is set and Input has none.
type ProcessRequest struct {
	MeetingID  string
	ExternalID string
	Input      attribution.Input
	Formats    []report.Format
}

// ProcessResult is what callers get back for a stored attribution
type ProcessResult struct {
	AttributionID uuid.UUID           `json:"attribution_id"`
	TranscriptID  uuid.UUID           `json:"transcript_id"`
	MeetingID     string              `json:"meeting_id,omitempty"`
	ExternalID    string              `json:"external_id,omitempty"`
	Result        *attribution.Result `json:"result"`
	// Artifacts maps rendering format to a download URL
	Artifacts      map[string]string `json:"artifacts,omitempty"`
	MeetingStartMs int64             `json:"meeting_start_ms"`
	CreatedAt      time.Time         `json:"created_at"`
}

// JobRequest queues attribution of a provider transcript, or of audio still to be diarized
type JobRequest struct {
	MeetingID        string
	ExternalID       string
	AudioURL         string
	SpeakersExpected int
	Roster           entities.Roster
	SpeakerChanges   []entities.SpeakerChange
	MeetingStartMs   int64
	Formats          []report.Format
}

// Options tunes the service around the engine
type Options struct {
	ResultTTL      time.Duration
	PollInterval   time.Duration
	BatchSize      int
	MaxRetries     int
	JobTimeout     time.Duration
	RetryBaseDelay time.Duration
	// StaleAfter is how long a job may sit awaiting a webhook or processing before recovery
	StaleAfter     time.Duration
	WebhookSecret  string
	DefaultFormats []report.Format
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		ResultTTL:      24 * time.Hour,
		PollInterval:   10 * time.Second,
		BatchSize:      10,
		MaxRetries:     3,
		JobTimeout:     5 * time.Minute,
		RetryBaseDelay: 5 * time.Second,
		StaleAfter:     10 * time.Minute,
		DefaultFormats: []report.Format{report.FormatFlat, report.FormatLabeled, report.FormatReport},
	}
}
