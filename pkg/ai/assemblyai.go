package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
	"github.com/johnquangdev/speaker-attribution/pkg/config"
	"github.com/johnquangdev/speaker-attribution/pkg/jobcontext"
)

var (
	ErrNotConfigured      = errors.New("assemblyai api key not configured")
	ErrTranscriptNotReady = errors.New("transcript not completed")
	ErrTranscriptFailed   = errors.New("transcript failed at provider")
	ErrTranscriptNotFound = errors.New("transcript not found at provider")
)

// ProviderTranscript is a diarized transcript fetched from AssemblyAI
type ProviderTranscript struct {
	ID         string
	Status     string
	Utterances []entities.Utterance
	Error      string
}

// DiarizationClient fetches diarized utterances from AssemblyAI and submits audio for diarization
type DiarizationClient struct {
	client       *aai.Client
	configured   bool
	webhookURL   string
	secret       string
	languageCode string
	maxElapsed   time.Duration
	logger       *zap.Logger
}

// NewDiarizationClient creates a client on the official SDK
func NewDiarizationClient(cfg *config.AssemblyAIConfig, logger *zap.Logger) *DiarizationClient {
	opts := []aai.ClientOption{aai.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, aai.WithBaseURL(cfg.BaseURL))
	}
	return &DiarizationClient{
		client:       aai.NewClientWithOptions(opts...),
		configured:   cfg.APIKey != "",
		webhookURL:   cfg.WebhookBaseURL,
		secret:       cfg.WebhookSecret,
		languageCode: cfg.LanguageCode,
		maxElapsed:   30 * time.Second,
		logger:       logger,
	}
}

// Configured reports whether an API key is set
func (c *DiarizationClient) Configured() bool {
	return c != nil && c.configured
}

// FetchUtterances gets a transcript and converts its utterances.
// A transcript that is still queued or processing yields ErrTranscriptNotReady.
func (c *DiarizationClient) FetchUtterances(ctx context.Context, transcriptID string) (*ProviderTranscript, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var transcript aai.Transcript
	fetchFn := func() error {
		t, err := c.client.Transcripts.Get(ctx, transcriptID)
		if err != nil {
			if jobcontext.IsNonRetryableError(err) {
				return backoff.Permanent(err)
			}
			if c.logger != nil {
				c.logger.Warn("⚠️ AssemblyAI fetch attempt failed",
					zap.String("transcript_id", transcriptID),
					zap.Error(err),
				)
			}
			return err
		}
		transcript = t
		return nil
	}
	if err := backoff.Retry(fetchFn, backoff.WithContext(c.retryPolicy(), ctx)); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTranscriptNotFound, transcriptID)
		}
		return nil, fmt.Errorf("failed to fetch transcript %s: %w", transcriptID, err)
	}

	out := &ProviderTranscript{
		ID:     transcriptID,
		Status: string(transcript.Status),
	}
	switch transcript.Status {
	case aai.TranscriptStatusCompleted:
	case aai.TranscriptStatusError:
		if transcript.Error != nil {
			out.Error = *transcript.Error
		}
		return out, fmt.Errorf("%w: %s", ErrTranscriptFailed, out.Error)
	default:
		return out, fmt.Errorf("%w: status %s", ErrTranscriptNotReady, transcript.Status)
	}

	utts, err := ConvertUtterances(transcript.Utterances)
	if err != nil {
		return out, err
	}
	out.Utterances = utts

	if c.logger != nil {
		c.logger.Info("✅ Received diarized transcript from AssemblyAI",
			zap.String("transcript_id", transcriptID),
			zap.Int("utterances", len(utts)),
		)
	}
	return out, nil
}

// Submit asks AssemblyAI to diarize audioURL and returns the provider transcript ID.
// The completion webhook is configured when a webhook URL is set.
func (c *DiarizationClient) Submit(ctx context.Context, audioURL string, speakersExpected int) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	audioURL = strings.TrimSpace(audioURL)
	if audioURL == "" {
		return "", fmt.Errorf("audio URL is required")
	}

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(true),
	}
	if speakersExpected > 0 {
		params.SpeakersExpected = aai.Int64(int64(speakersExpected))
	}
	if c.languageCode != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(c.languageCode)
	}
	if c.webhookURL != "" {
		params.WebhookURL = aai.String(c.webhookURL)
		if c.secret != "" {
			params.WebhookAuthHeaderName = aai.String(WebhookAuthHeader)
			params.WebhookAuthHeaderValue = aai.String(c.secret)
		}
	}

	var transcriptID string
	submitFn := func() error {
		t, err := c.client.Transcripts.SubmitFromURL(ctx, audioURL, params)
		if err != nil {
			if jobcontext.IsNonRetryableError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		if t.ID == nil || *t.ID == "" {
			return backoff.Permanent(fmt.Errorf("assemblyai returned no transcript id"))
		}
		transcriptID = *t.ID
		return nil
	}
	if err := backoff.Retry(submitFn, backoff.WithContext(c.retryPolicy(), ctx)); err != nil {
		return "", fmt.Errorf("failed to submit to AssemblyAI: %w", err)
	}

	if c.logger != nil {
		c.logger.Info("🎙️ Submitted audio for diarization",
			zap.String("transcript_id", transcriptID),
			zap.Bool("webhook", c.webhookURL != ""),
		)
	}
	return transcriptID, nil
}

func (c *DiarizationClient) retryPolicy() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = c.maxElapsed
	return bo
}

// ConvertUtterances maps SDK utterances onto validated entities, keeping provider order
func ConvertUtterances(in []aai.TranscriptUtterance) ([]entities.Utterance, error) {
	out := make([]entities.Utterance, 0, len(in))
	for i, u := range in {
		utt, err := entities.NewUtterance(
			deref(u.Speaker),
			deref(u.Text),
			deref(u.Start),
			deref(u.End),
			deref(u.Confidence),
		)
		if err != nil {
			return nil, fmt.Errorf("utterance %d: %w", i, err)
		}
		out = append(out, utt)
	}
	return out, nil
}

// isNotFound matches the SDK's 404 responses, which only carry the status in the message
func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "404") || strings.Contains(msg, "not found")
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
