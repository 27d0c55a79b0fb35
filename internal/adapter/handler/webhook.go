package handler

import (
	"io"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/speaker-attribution/errors"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/transcript"
	"github.com/johnquangdev/speaker-attribution/pkg/ai"
)

// maxWebhookBody bounds the payload read from the provider
const maxWebhookBody = 1 << 20

// Webhook receives transcript status callbacks from AssemblyAI
type Webhook struct {
	svc    transcript.Service
	logger *zap.Logger
}

// NewWebhook creates the webhook handler
func NewWebhook(svc transcript.Service, logger *zap.Logger) *Webhook {
	return &Webhook{svc: svc, logger: logger}
}

// HandleAssemblyAI releases the job waiting on the reported transcript
// POST /v1/webhooks/assemblyai
func (h *Webhook) HandleAssemblyAI(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	header := c.Request().Header
	if err := h.svc.HandleWebhook(c.Request().Context(), body,
		header.Get(ai.WebhookAuthHeader),
		header.Get(ai.WebhookSignatureHeader),
	); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{"status": "ok"})
}
