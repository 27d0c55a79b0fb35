package handler

import (
	"context"
	"path"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/speaker-attribution/errors"
	"github.com/johnquangdev/speaker-attribution/internal/infrastructure/storage"
)

// ArtifactLister is the read side of the artifact store
type ArtifactLister interface {
	List(ctx context.Context, prefix string) ([]string, error)
	URL(ctx context.Context, key string) (string, error)
}

// Artifacts lists the stored renderings of an attribution
type Artifacts struct {
	store  ArtifactLister
	logger *zap.Logger
}

// NewArtifacts creates the artifacts handler
func NewArtifacts(store ArtifactLister, logger *zap.Logger) *Artifacts {
	return &Artifacts{store: store, logger: logger}
}

type artifactFile struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	URL  string `json:"url,omitempty"`
}

// ListArtifacts returns every object stored for an attribution with a download URL
// GET /v1/attributions/:id/artifacts
func (h *Artifacts) ListArtifacts(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid attribution id"))
	}

	keys, err := h.store.List(ctx, storage.AttributionPrefix(id.String()))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStorageFailed("list", err))
	}

	files := make([]artifactFile, 0, len(keys))
	for _, key := range keys {
		f := artifactFile{Name: path.Base(key), Key: key}
		if url, err := h.store.URL(ctx, key); err == nil {
			f.URL = url
		} else if h.logger != nil {
			h.logger.Warn("failed to generate download URL", zap.String("key", key), zap.Error(err))
		}
		files = append(files, f)
	}

	return HandleSuccess(h.logger, c, map[string]interface{}{
		"attribution_id": id.String(),
		"files":          files,
		"count":          len(files),
	})
}
