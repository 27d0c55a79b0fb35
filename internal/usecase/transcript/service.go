package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
	domainrepo "github.com/johnquangdev/speaker-attribution/internal/domain/repositories"
	"github.com/johnquangdev/speaker-attribution/internal/infrastructure/cache"
	"github.com/johnquangdev/speaker-attribution/internal/infrastructure/storage"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/attribution"
	ucerrors "github.com/johnquangdev/speaker-attribution/internal/usecase/errors"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/report"
	"github.com/johnquangdev/speaker-attribution/pkg/ai"
)

// Service orchestrates attribution runs around the engine
type Service interface {
	Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error)
	GetAttribution(ctx context.Context, id uuid.UUID) (*ProcessResult, error)
	Render(ctx context.Context, id uuid.UUID, format report.Format) (string, error)
	EnqueueJob(ctx context.Context, req JobRequest) (*entities.AttributionJob, error)
	GetJob(ctx context.Context, id uuid.UUID) (*entities.AttributionJob, error)
	HandleWebhook(ctx context.Context, payload []byte, authHeader, signature string) error
	StartWorkerPool(ctx context.Context, workerCount int) error
	StopWorkerPool() error
}

type service struct {
	transcriptRepo  domainrepo.TranscriptRepository
	attributionRepo domainrepo.AttributionRepository
	jobRepo         domainrepo.JobRepository
	provider        UtteranceProvider
	artifacts       ArtifactStore
	store           cache.Store
	engine          *attribution.Engine
	renderer        *report.Renderer
	opts            Options
	logger          *zap.Logger

	workerStopChan      chan struct{}
	workerWg            sync.WaitGroup
	isWorkerPoolRunning bool
	workerMutex         sync.Mutex
}

// NewService wires the service. provider, artifacts and store may be nil.
func NewService(
	transcriptRepo domainrepo.TranscriptRepository,
	attributionRepo domainrepo.AttributionRepository,
	jobRepo domainrepo.JobRepository,
	provider UtteranceProvider,
	artifacts ArtifactStore,
	store cache.Store,
	engine *attribution.Engine,
	renderer *report.Renderer,
	opts Options,
	logger *zap.Logger,
) Service {
	if renderer == nil {
		renderer = report.NewRenderer()
	}
	return &service{
		transcriptRepo:  transcriptRepo,
		attributionRepo: attributionRepo,
		jobRepo:         jobRepo,
		provider:        provider,
		artifacts:       artifacts,
		store:           store,
		engine:          engine,
		renderer:        renderer,
		opts:            opts,
		logger:          logger,
		workerStopChan:  make(chan struct{}),
	}
}

// Process runs attribution, persists transcript and outcome, uploads renderings and caches the result
func (s *service) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	in := req.Input
	source := entities.TranscriptSourceInline

	if len(in.Utterances) == 0 && req.ExternalID != "" {
		utts, err := s.fetchUtterances(ctx, req.ExternalID)
		if err != nil {
			return nil, err
		}
		in.Utterances = utts
		source = entities.TranscriptSourceAssemblyAI
	}

	res, err := s.engine.Attribute(in)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("⚠️ Attribution rejected",
				zap.String("meeting_id", req.MeetingID),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("%w: %w", ucerrors.ErrAttributionFailed, err)
	}

	if s.logger != nil {
		s.logger.Info("✅ Speakers attributed",
			zap.String("meeting_id", req.MeetingID),
			zap.String("outcome", string(res.Outcome)),
			zap.String("strategy", string(res.Strategy)),
			zap.Int("labels", len(res.Mapping)),
			zap.Int("utterances", len(res.Utterances)),
			zap.Int("dropped", len(res.Dropped)),
		)
	}

	transcript := entities.NewTranscript(req.MeetingID, source, in.MeetingStartMs)
	if req.ExternalID != "" {
		ext := req.ExternalID
		transcript.ExternalID = &ext
	}
	transcript.RawCount = len(in.Utterances)
	transcript.SetUtterances(res.Utterances)

	record, err := newAttributionRecord(transcript.ID, res)
	if err != nil {
		return nil, err
	}
	// one transaction, so a retried job never leaves a transcript without its attribution
	if err := s.transcriptRepo.CreateTranscript(ctx, transcript, record); err != nil {
		return nil, fmt.Errorf("failed to save attribution: %w", err)
	}

	out := &ProcessResult{
		AttributionID:  record.ID,
		TranscriptID:   transcript.ID,
		MeetingID:      req.MeetingID,
		ExternalID:     req.ExternalID,
		Result:         res,
		MeetingStartMs: in.MeetingStartMs,
		CreatedAt:      record.CreatedAt,
	}

	formats := req.Formats
	if len(formats) == 0 {
		formats = s.opts.DefaultFormats
	}
	out.Artifacts = s.publishArtifacts(ctx, record, res, in.MeetingStartMs, formats)

	s.cacheResult(ctx, out)
	return out, nil
}

func newAttributionRecord(transcriptID uuid.UUID, res *attribution.Result) (*entities.SpeakerAttribution, error) {
	doc, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attribution result: %w", err)
	}
	record := entities.NewSpeakerAttribution(transcriptID, string(res.Outcome), string(res.Strategy), res.Mapping)
	record.Stats = datatypes.NewJSONType(res.Stats)
	record.Participants = datatypes.NewJSONType(res.Participants)
	record.Result = datatypes.JSON(doc)
	return record, nil
}

// fetchUtterances maps provider failures onto service errors
func (s *service) fetchUtterances(ctx context.Context, externalID string) ([]entities.Utterance, error) {
	if s.provider == nil || !s.provider.Configured() {
		return nil, ucerrors.ErrProviderUnavailable
	}
	pt, err := s.provider.FetchUtterances(ctx, externalID)
	if err == nil {
		return pt.Utterances, nil
	}
	var status, detail string
	if pt != nil {
		status, detail = pt.Status, pt.Error
	}
	switch {
	case errors.Is(err, ai.ErrTranscriptNotReady):
		return nil, fmt.Errorf("%w: %s", ucerrors.ErrTranscriptNotReady, status)
	case errors.Is(err, ai.ErrTranscriptFailed):
		return nil, fmt.Errorf("%w: %s", ucerrors.ErrTranscriptFailed, detail)
	case errors.Is(err, ai.ErrTranscriptNotFound):
		return nil, fmt.Errorf("%w: %s", ucerrors.ErrTranscriptNotFound, externalID)
	}
	return nil, fmt.Errorf("failed to fetch utterances for %s: %w", externalID, err)
}

// publishArtifacts renders and uploads each format. Failures are logged, never fatal.
func (s *service) publishArtifacts(ctx context.Context, record *entities.SpeakerAttribution, res *attribution.Result, meetingStartMs int64, formats []report.Format) map[string]string {
	if s.artifacts == nil || len(formats) == 0 {
		return nil
	}

	urls := make(map[string]string, len(formats))
	for _, f := range formats {
		body, err := s.renderer.Render(f, res, meetingStartMs)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ Failed to render artifact", zap.String("format", string(f)), zap.Error(err))
			}
			continue
		}
		key := storage.ObjectKey(record.ID.String(), string(f), f.Extension())
		if err := s.artifacts.Upload(ctx, key, []byte(body), f.ContentType()); err != nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ Failed to upload artifact",
					zap.String("attribution_id", record.ID.String()),
					zap.String("key", key),
					zap.Error(err),
				)
			}
			continue
		}
		record.SetArtifact(string(f), key)
		if url, err := s.artifacts.URL(ctx, key); err == nil {
			urls[string(f)] = url
		}
	}

	if len(record.Artifacts.Data()) > 0 {
		if err := s.attributionRepo.UpdateArtifacts(ctx, record); err != nil && s.logger != nil {
			s.logger.Warn("⚠️ Failed to save artifact keys",
				zap.String("attribution_id", record.ID.String()),
				zap.Error(err),
			)
		}
	}
	if s.logger != nil {
		s.logger.Info("📦 Artifacts published",
			zap.String("attribution_id", record.ID.String()),
			zap.Int("count", len(urls)),
		)
	}
	return urls
}

func (s *service) cacheResult(ctx context.Context, out *ProcessResult) {
	if s.store == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.store, cache.AttributionKey(out.AttributionID.String()), out, s.opts.ResultTTL); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to cache attribution", zap.Error(err))
	}
}

// GetAttribution reads the cache first, then the repository
func (s *service) GetAttribution(ctx context.Context, id uuid.UUID) (*ProcessResult, error) {
	if s.store != nil {
		var cached ProcessResult
		err := cache.GetJSON(ctx, s.store, cache.AttributionKey(id.String()), &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) && s.logger != nil {
			s.logger.Warn("⚠️ Cache read failed", zap.String("attribution_id", id.String()), zap.Error(err))
		}
	}

	record, err := s.attributionRepo.GetAttributionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get attribution: %w", err)
	}
	if record == nil {
		return nil, ucerrors.ErrAttributionNotFound
	}

	var res attribution.Result
	if err := json.Unmarshal(record.Result, &res); err != nil {
		return nil, fmt.Errorf("failed to decode attribution result: %w", err)
	}

	out := &ProcessResult{
		AttributionID: record.ID,
		TranscriptID:  record.TranscriptID,
		Result:        &res,
		CreatedAt:     record.CreatedAt,
	}
	if t := record.Transcript; t != nil {
		out.MeetingID = t.MeetingID
		out.MeetingStartMs = t.MeetingStartMs
		if t.ExternalID != nil {
			out.ExternalID = *t.ExternalID
		}
	}
	if s.artifacts != nil {
		out.Artifacts = make(map[string]string)
		for format, key := range record.Artifacts.Data() {
			if url, err := s.artifacts.URL(ctx, key); err == nil {
				out.Artifacts[format] = url
			}
		}
	}

	s.cacheResult(ctx, out)
	return out, nil
}

// Render renders a stored attribution on demand
func (s *service) Render(ctx context.Context, id uuid.UUID, format report.Format) (string, error) {
	out, err := s.GetAttribution(ctx, id)
	if err != nil {
		return "", err
	}
	return s.renderer.Render(format, out.Result, out.MeetingStartMs)
}
