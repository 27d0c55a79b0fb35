package attribution

import (
	"time"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
	attr "github.com/johnquangdev/speaker-attribution/internal/usecase/attribution"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/transcript"
)

// AttributionResponse is the API view of a stored attribution
type AttributionResponse struct {
	ID             string                         `json:"id"`
	TranscriptID   string                         `json:"transcript_id"`
	MeetingID      string                         `json:"meeting_id,omitempty"`
	ExternalID     string                         `json:"external_id,omitempty"`
	Outcome        string                         `json:"outcome"`
	Strategy       string                         `json:"strategy"`
	Mapping        entities.Mapping               `json:"mapping"`
	Participants   []string                       `json:"participants"`
	Unused         []string                       `json:"unused_participants,omitempty"`
	Stats          []entities.SpeakerStats        `json:"stats"`
	Utterances     []entities.AttributedUtterance `json:"utterances"`
	Dropped        []attr.Dropped                 `json:"dropped,omitempty"`
	Artifacts      map[string]string              `json:"artifacts,omitempty"`
	MeetingStartMs int64                          `json:"meeting_start_ms"`
	CreatedAt      time.Time                      `json:"created_at"`
}

// NewAttributionResponse flattens a service result for the API
func NewAttributionResponse(out *transcript.ProcessResult) *AttributionResponse {
	if out == nil || out.Result == nil {
		return nil
	}
	res := out.Result
	return &AttributionResponse{
		ID:             out.AttributionID.String(),
		TranscriptID:   out.TranscriptID.String(),
		MeetingID:      out.MeetingID,
		ExternalID:     out.ExternalID,
		Outcome:        string(res.Outcome),
		Strategy:       string(res.Strategy),
		Mapping:        res.Mapping,
		Participants:   res.Participants,
		Unused:         res.UnusedParticipants(),
		Stats:          res.Stats,
		Utterances:     res.Utterances,
		Dropped:        res.Dropped,
		Artifacts:      out.Artifacts,
		MeetingStartMs: out.MeetingStartMs,
		CreatedAt:      out.CreatedAt,
	}
}

// JobResponse is the API view of an attribution job
type JobResponse struct {
	ID            string     `json:"id"`
	MeetingID     string     `json:"meeting_id,omitempty"`
	Status        string     `json:"status"`
	TranscriptID  string     `json:"transcript_id,omitempty"`
	AttributionID string     `json:"attribution_id,omitempty"`
	RetryCount    int        `json:"retry_count"`
	LastError     string     `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// NewJobResponse converts a job entity
func NewJobResponse(job *entities.AttributionJob) *JobResponse {
	if job == nil {
		return nil
	}
	resp := &JobResponse{
		ID:          job.ID.String(),
		MeetingID:   job.MeetingID,
		Status:      string(job.Status),
		RetryCount:  job.RetryCount,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}
	if job.ExternalID != nil {
		resp.TranscriptID = *job.ExternalID
	}
	if job.AttributionID != nil {
		resp.AttributionID = job.AttributionID.String()
	}
	if job.LastError != nil {
		resp.LastError = *job.LastError
	}
	return resp
}
