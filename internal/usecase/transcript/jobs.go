package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/attribution"
	ucerrors "github.com/johnquangdev/speaker-attribution/internal/usecase/errors"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/report"
	"github.com/johnquangdev/speaker-attribution/pkg/ai"
)

// webhookPayload is the body AssemblyAI posts when a transcript changes state
type webhookPayload struct {
	TranscriptID string `json:"transcript_id"`
	ID           string `json:"id"`
	Status       string `json:"status"`
	Error        string `json:"error"`
}

// EnqueueJob queues attribution of a provider transcript. With only an audio URL,
// the audio is submitted for diarization first and the job waits for the webhook.
func (s *service) EnqueueJob(ctx context.Context, req JobRequest) (*entities.AttributionJob, error) {
	if req.ExternalID == "" && strings.TrimSpace(req.AudioURL) == "" {
		return nil, ucerrors.ErrNoUtteranceSource
	}
	if s.provider == nil || !s.provider.Configured() {
		return nil, ucerrors.ErrProviderUnavailable
	}

	input := entities.JobInput{
		Roster:         req.Roster,
		SpeakerChanges: req.SpeakerChanges,
		MeetingStartMs: req.MeetingStartMs,
		Formats:        formatNames(req.Formats),
	}
	job := entities.NewAttributionJob(req.MeetingID, req.ExternalID, input, s.opts.MaxRetries)

	if req.ExternalID != "" {
		if err := s.jobRepo.CreateJob(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to create attribution job: %w", err)
		}
		if s.logger != nil {
			s.logger.Info("📋 Attribution job queued",
				zap.String("job_id", job.ID.String()),
				zap.String("transcript_id", req.ExternalID),
			)
		}
		return job, nil
	}

	// Created before submitting so the webhook always finds the job
	job.Status = entities.JobStatusAwaitingTranscript
	job.AudioURL = strings.TrimSpace(req.AudioURL)
	if err := s.jobRepo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create attribution job: %w", err)
	}

	speakers := req.SpeakersExpected
	if speakers == 0 {
		speakers = len(attribution.FilterParticipants(req.Roster))
	}
	externalID, err := s.provider.Submit(ctx, job.AudioURL, speakers)
	if err != nil {
		if markErr := s.jobRepo.MarkFailed(ctx, job.ID, err.Error()); markErr != nil && s.logger != nil {
			s.logger.Error("❌ Failed to mark job as failed", zap.String("job_id", job.ID.String()), zap.Error(markErr))
		}
		return nil, fmt.Errorf("failed to submit audio: %w", err)
	}
	if err := s.jobRepo.MarkAwaitingTranscript(ctx, job.ID, externalID); err != nil {
		return nil, fmt.Errorf("failed to record transcript id: %w", err)
	}
	job.MarkAwaitingTranscript(externalID)

	if s.logger != nil {
		s.logger.Info("📤 Audio submitted, job awaiting transcript",
			zap.String("job_id", job.ID.String()),
			zap.String("transcript_id", externalID),
			zap.Int("speakers_expected", speakers),
		)
	}
	return job, nil
}

// GetJob returns a job or ErrJobNotFound
func (s *service) GetJob(ctx context.Context, id uuid.UUID) (*entities.AttributionJob, error) {
	job, err := s.jobRepo.GetJobByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get attribution job: %w", err)
	}
	if job == nil {
		return nil, ucerrors.ErrJobNotFound
	}
	return job, nil
}

// HandleWebhook releases or fails the job waiting on a provider transcript
func (s *service) HandleWebhook(ctx context.Context, payload []byte, authHeader, signature string) error {
	if !ai.VerifyWebhook(s.opts.WebhookSecret, payload, authHeader, signature) {
		if s.logger != nil {
			s.logger.Warn("⚠️ Invalid webhook signature from AssemblyAI")
		}
		return ucerrors.ErrInvalidSignature
	}

	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return fmt.Errorf("%w: failed to parse webhook payload: %v", ucerrors.ErrInvalidInput, err)
	}
	transcriptID := body.TranscriptID
	if transcriptID == "" {
		transcriptID = body.ID
	}
	if transcriptID == "" {
		return fmt.Errorf("%w: transcript ID missing in webhook", ucerrors.ErrInvalidInput)
	}

	if s.logger != nil {
		s.logger.Info("📥 Received AssemblyAI webhook",
			zap.String("transcript_id", transcriptID),
			zap.String("status", body.Status),
		)
	}

	job, err := s.jobRepo.GetJobByExternalID(ctx, transcriptID)
	if err != nil {
		return fmt.Errorf("failed to find attribution job: %w", err)
	}
	if job == nil {
		return ucerrors.ErrJobNotFound
	}

	switch body.Status {
	case "completed":
		released, err := s.jobRepo.MarkReady(ctx, transcriptID)
		if err != nil {
			return fmt.Errorf("failed to release job: %w", err)
		}
		if s.logger != nil && !released {
			s.logger.Info("⏭️ Job not awaiting transcript, webhook ignored",
				zap.String("job_id", job.ID.String()),
				zap.String("status", string(job.Status)),
			)
		}
	case "error":
		msg := "AssemblyAI transcription failed"
		if body.Error != "" {
			msg = "AssemblyAI error: " + body.Error
		}
		if err := s.jobRepo.MarkFailed(ctx, job.ID, msg); err != nil {
			return fmt.Errorf("failed to mark job as failed: %w", err)
		}
		if s.logger != nil {
			s.logger.Error("❌ AssemblyAI reported error",
				zap.String("job_id", job.ID.String()),
				zap.String("error", msg),
			)
		}
	}
	return nil
}

// processJob fetches the provider transcript and runs Process for a claimed job
func (s *service) processJob(ctx context.Context, job *entities.AttributionJob) (uuid.UUID, error) {
	if job.ExternalID == nil || *job.ExternalID == "" {
		return uuid.Nil, fmt.Errorf("%w: job %s has no transcript id", ucerrors.ErrInvalidInput, job.ID)
	}

	formats := make([]report.Format, 0, len(job.Input.Formats))
	for _, name := range job.Input.Formats {
		if f, err := report.ParseFormat(name); err == nil {
			formats = append(formats, f)
		}
	}

	out, err := s.Process(ctx, ProcessRequest{
		MeetingID:  job.MeetingID,
		ExternalID: *job.ExternalID,
		Input: attribution.Input{
			Roster:         job.Input.Roster,
			SpeakerChanges: job.Input.SpeakerChanges,
			MeetingStartMs: job.Input.MeetingStartMs,
		},
		Formats: formats,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return out.AttributionID, nil
}

func formatNames(formats []report.Format) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		out = append(out, string(f))
	}
	return out
}
