package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	domrepo "github.com/kimyeonkyu7453/SPP/internal/domain/repository"
	"github.com/kimyeonkyu7453/SPP/internal/services/forecast"
	"github.com/kimyeonkyu7453/SPP/internal/services/progress"
	"github.com/kimyeonkyu7453/SPP/internal/usecase"
	xhttp "github.com/kimyeonkyu7453/SPP/pkg/http"
	xlogger "github.com/kimyeonkyu7453/SPP/pkg/logger"
)

// toAppError maps use case failures onto API error codes. Unknown errors map to nil.
func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, usecase.ErrMissingSymbol):
		return xhttp.NewAppError("ERR_MISSING_CODE", "code", "stock code is required", http.StatusBadRequest).WithError(err)
	case errors.Is(err, domrepo.ErrSymbolNotFound):
		return xhttp.NewAppError("ERR_UNKNOWN_SYMBOL", "code", "unknown stock code", http.StatusNotFound).WithError(err)
	case errors.Is(err, forecast.ErrInsufficientHistory):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_HISTORY", "not enough price history to train").WithError(err)
	case errors.Is(err, forecast.ErrConstantSeries):
		return xhttp.UnprocessableError("ERR_CONSTANT_SERIES", "price history is constant").WithError(err)
	case errors.Is(err, forecast.ErrEmptyValidationSet):
		return xhttp.UnprocessableError("ERR_EMPTY_VALIDATION", "not enough price history for validation").WithError(err)
	case errors.Is(err, usecase.ErrMarketData):
		return xhttp.BadGatewayError("ERR_MARKET_DATA", "market data provider failed").WithError(err)
	case errors.Is(err, usecase.ErrForecastInProgress):
		return xhttp.ConflictError("ERR_FORECAST_IN_PROGRESS", "a forecast for this code is already running").WithError(err)
	case errors.Is(err, usecase.ErrQueueUnavailable):
		return xhttp.ServiceUnavailableError("ERR_QUEUE_UNAVAILABLE", "forecast queue unavailable").WithError(err)
	case errors.Is(err, usecase.ErrMonitorRunning):
		return xhttp.ConflictError("ERR_MONITOR_RUNNING", "news monitoring is already running").WithError(err)
	case errors.Is(err, usecase.ErrEmailTaken):
		return xhttp.ConflictError("ERR_EMAIL_TAKEN", "email is already registered").WithError(err)
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return xhttp.UnauthorizedError("ERR_INVALID_CREDENTIALS", "invalid email or password").WithError(err)
	case errors.Is(err, usecase.ErrNotAuthenticated):
		return xhttp.UnauthorizedError("ERR_NOT_AUTHENTICATED", "not authenticated").WithError(err)
	case errors.Is(err, progress.ErrUnknownToken):
		return xhttp.NewAppError("ERR_UNKNOWN_TOKEN", "token", "unknown progress token", http.StatusNotFound).WithError(err)
	}
	return nil
}

// errorResponse logs and renders err. Client errors log at warn, the rest at error.
func errorResponse(c echo.Context, l *xlogger.Logger, op string, err error) error {
	appErr := toAppError(err)
	if appErr == nil {
		l.Error(op+" failed", xlogger.Error(err), xlogger.String("path", c.Path()))
		return xhttp.InternalServerErrorResponse(c)
	}
	if appErr.Status >= 500 {
		l.Error(op+" failed", xlogger.Error(err), xlogger.String("code", appErr.Code))
	} else {
		l.Warn(op+" rejected", xlogger.Error(err), xlogger.String("code", appErr.Code))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
