package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	raw := stderrors.New("boom")
	err := ErrAttributionFailed(raw)

	assert.Equal(t, "[ATTRIBUTION_FAILED] Speaker attribution failed: boom", err.Error())
	assert.True(t, stderrors.Is(err, raw))
	assert.Equal(t, http.StatusInternalServerError, err.HTTPCode)
}

func TestAppError_WithDetailDoesNotShareMaps(t *testing.T) {
	base := ErrNotFound("thing")
	a := base.WithDetail("id", "1")
	b := a.WithDetail("id", "2")

	assert.Equal(t, "1", a.Details["id"])
	assert.Equal(t, "2", b.Details["id"])
	assert.Nil(t, base.Details)
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("failed to load: %w", ErrTranscriptNotFound("t-1"))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrorCode_TRANSCRIPT_NOT_FOUND, appErr.Code)
	assert.Equal(t, "t-1", appErr.Details["transcript_id"])

	_, ok = As(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "INVALID_PAYLOAD", ErrorCode_INVALID_PAYLOAD.String())
	assert.Equal(t, "UNKNOWN", ErrorCode(999).String())
}
