package handler

import (
	stdErrors "errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/speaker-attribution/errors"
	dto "github.com/johnquangdev/speaker-attribution/internal/adapter/dto/attribution"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/attribution"
	ucerrors "github.com/johnquangdev/speaker-attribution/internal/usecase/errors"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/report"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/transcript"
)

// Attribution serves speaker attribution endpoints
type Attribution struct {
	svc    transcript.Service
	logger *zap.Logger
}

// NewAttribution creates the attribution handler
func NewAttribution(svc transcript.Service, logger *zap.Logger) *Attribution {
	return &Attribution{svc: svc, logger: logger}
}

// CreateAttribution attributes speakers of one meeting synchronously
// POST /v1/attributions
func (h *Attribution) CreateAttribution(c echo.Context) error {
	var req dto.CreateAttributionRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}
	if len(req.Utterances) == 0 && req.TranscriptID == "" {
		return HandleError(h.logger, c, ucerrors.ErrNoUtteranceSource)
	}

	formats, err := parseFormats(req.Formats)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	out, err := h.svc.Process(c.Request().Context(), transcript.ProcessRequest{
		MeetingID:  req.MeetingID,
		ExternalID: req.TranscriptID,
		Input: attribution.Input{
			Utterances:     req.Utterances,
			Roster:         req.Roster,
			SpeakerChanges: req.SpeakerChanges,
			MeetingStartMs: req.MeetingStartMs,
		},
		Formats: formats,
	})
	if err != nil {
		if stdErrors.Is(err, ucerrors.ErrTranscriptNotReady) {
			return HandleError(h.logger, c, notReady(req.TranscriptID, err))
		}
		if stdErrors.Is(err, ucerrors.ErrTranscriptNotFound) {
			appErr := errors.ErrTranscriptNotFound(req.TranscriptID)
			appErr.Raw = err
			return HandleError(h.logger, c, appErr)
		}
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, dto.NewAttributionResponse(out))
}

// GetAttribution returns a stored attribution
// GET /v1/attributions/:id
func (h *Attribution) GetAttribution(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid attribution id"))
	}

	out, err := h.svc.GetAttribution(c.Request().Context(), id)
	if err != nil {
		if stdErrors.Is(err, ucerrors.ErrAttributionNotFound) {
			return HandleError(h.logger, c, errors.ErrAttributionNotFound(id.String()))
		}
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, dto.NewAttributionResponse(out))
}

// RenderAttribution returns a stored attribution as text in the requested format
// GET /v1/attributions/:id/render?format=labeled
func (h *Attribution) RenderAttribution(c echo.Context) error {
	var req dto.RenderRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	format := report.FormatLabeled
	if req.Format != "" {
		f, err := report.ParseFormat(req.Format)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
		}
		format = f
	}

	id := uuid.MustParse(req.ID)
	body, err := h.svc.Render(c.Request().Context(), id, format)
	if err != nil {
		if stdErrors.Is(err, ucerrors.ErrAttributionNotFound) {
			return HandleError(h.logger, c, errors.ErrAttributionNotFound(id.String()))
		}
		return HandleError(h.logger, c, err)
	}
	return c.Blob(http.StatusOK, format.ContentType(), []byte(body))
}

// CreateJob queues attribution of an AssemblyAI transcript or of audio to diarize
// POST /v1/attribution-jobs
func (h *Attribution) CreateJob(c echo.Context) error {
	var req dto.CreateJobRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	formats, err := parseFormats(req.Formats)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	job, err := h.svc.EnqueueJob(c.Request().Context(), transcript.JobRequest{
		MeetingID:        req.MeetingID,
		ExternalID:       req.TranscriptID,
		AudioURL:         req.AudioURL,
		SpeakersExpected: req.SpeakersExpected,
		Roster:           req.Roster,
		SpeakerChanges:   req.SpeakerChanges,
		MeetingStartMs:   req.MeetingStartMs,
		Formats:          formats,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleAccepted(h.logger, c, dto.NewJobResponse(job))
}

// GetJob returns the state of an attribution job
// GET /v1/attribution-jobs/:id
func (h *Attribution) GetJob(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid job id"))
	}
	job, err := h.svc.GetJob(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, dto.NewJobResponse(job))
}

func parseFormats(names []string) ([]report.Format, error) {
	formats := make([]report.Format, 0, len(names))
	for _, name := range names {
		f, err := report.ParseFormat(name)
		if err != nil {
			return nil, errors.ErrInvalidArgument(err.Error())
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// notReady reports the provider status carried after the sentinel text
func notReady(transcriptID string, err error) errors.AppError {
	status, _ := strings.CutPrefix(err.Error(), ucerrors.ErrTranscriptNotReady.Error()+": ")
	appErr := errors.ErrTranscriptNotReady(transcriptID, status)
	appErr.Raw = err
	return appErr
}
