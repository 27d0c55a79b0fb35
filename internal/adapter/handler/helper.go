package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/speaker-attribution/errors"
	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/attribution"
	ucerrors "github.com/johnquangdev/speaker-attribution/internal/usecase/errors"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized 200 response
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return handleStatus(logger, c, http.StatusOK, data)
}

// HandleAccepted writes a standardized 202 response for queued work
func HandleAccepted(logger *zap.Logger, c echo.Context, data interface{}) error {
	return handleStatus(logger, c, http.StatusAccepted, data)
}

func handleStatus(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    status,
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError maps err onto an AppError and writes it
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := toAppError(err)

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.String("app_code", appErr.Code.String()),
			zap.Error(err),
		}
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("http.response.error", fields...)
		} else {
			logger.Warn("http.response.error", fields...)
		}
	}

	info := ""
	if appErr.Raw != nil {
		info = appErr.Raw.Error()
	}

	return c.JSON(appErr.HTTPCode, errs{
		Code:    appErr.Code.String(),
		Message: appErr.Message,
		Info:    info,
		Details: appErr.Details,
	})
}

// toAppError translates use case errors into API errors
func toAppError(err error) errors.AppError {
	if appErr, ok := errors.As(err); ok {
		return appErr
	}

	var he *echo.HTTPError
	switch {
	case stdErrors.As(err, &he):
		appErr := errors.ErrInvalidArgument(http.StatusText(he.Code))
		appErr.HTTPCode = he.Code
		appErr.Raw = err
		return appErr
	case stdErrors.Is(err, entities.ErrInvalidUtterance):
		return errors.ErrInvalidUtterance(err)
	case stdErrors.Is(err, attribution.ErrInvalidParams):
		appErr := errors.ErrInvalidArgument("Attribution parameters are invalid")
		appErr.Raw = err
		return appErr
	case stdErrors.Is(err, ucerrors.ErrTranscriptNotReady):
		appErr := errors.ErrTranscriptNotReady("", "")
		appErr.Details = nil
		appErr.Raw = err
		return appErr
	case stdErrors.Is(err, ucerrors.ErrAttributionNotFound):
		return errors.ErrNotFound("Attribution")
	case stdErrors.Is(err, ucerrors.ErrJobNotFound):
		return errors.ErrNotFound("Attribution job")
	case stdErrors.Is(err, ucerrors.ErrTranscriptNotFound):
		appErr := errors.ErrTranscriptNotFound("")
		appErr.Details = nil
		appErr.Raw = err
		return appErr
	case stdErrors.Is(err, ucerrors.ErrAttributionFailed):
		return errors.ErrAttributionFailed(err)
	case stdErrors.Is(err, ucerrors.ErrTranscriptFailed):
		return errors.ErrDiarizationFailed("transcribe", err)
	case stdErrors.Is(err, ucerrors.ErrProviderUnavailable):
		appErr := errors.ErrDiarizationFailed("configure", err)
		appErr.HTTPCode = http.StatusServiceUnavailable
		return appErr
	case stdErrors.Is(err, ucerrors.ErrInvalidSignature):
		appErr := errors.ErrUnauthenticated()
		appErr.Raw = err
		return appErr
	case stdErrors.Is(err, ucerrors.ErrNoUtteranceSource), stdErrors.Is(err, ucerrors.ErrInvalidInput):
		appErr := errors.ErrInvalidArgument(err.Error())
		appErr.Raw = err
		return appErr
	}
	return errors.ErrInternal(err)
}
