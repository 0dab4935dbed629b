package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	"github.com/kimyeonkyu7453/SPP/internal/usecase"
	xhttp "github.com/kimyeonkyu7453/SPP/pkg/http"
	"github.com/kimyeonkyu7453/SPP/pkg/http/middleware"
	xlogger "github.com/kimyeonkyu7453/SPP/pkg/logger"
)

// HeaderProgressToken carries the progress token of a forecast run.
const HeaderProgressToken = xhttp.HeaderProgressToken

// ForecastService runs forecasts synchronously and reads their stored history.
type ForecastService interface {
	Run(ctx context.Context, p usecase.ForecastParams) (*models.ForecastResult, error)
	History(ctx context.Context, symbol string, limit int) ([]models.ForecastRecord, error)
}

// JobEnqueuer accepts asynchronous forecast requests.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, symbol string) (string, error)
}

// ForecastHandler serves forecast requests.
type ForecastHandler struct {
	logger    *xlogger.Logger
	forecasts ForecastService
	jobs      JobEnqueuer
	limiter   middleware.KeyedLimiter
}

var _ xhttp.Handler = (*ForecastHandler)(nil)

// NewForecastHandler builds the handler. jobs and limiter may be nil.
func NewForecastHandler(logger *xlogger.Logger, forecasts ForecastService, jobs JobEnqueuer, limiter middleware.KeyedLimiter) *ForecastHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &ForecastHandler{logger: logger, forecasts: forecasts, jobs: jobs, limiter: limiter}
}

func (h *ForecastHandler) RegisterRoutes(e *echo.Echo) {
	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, middleware.RateLimit(h.limiter))
	}
	g := e.Group("/api")
	g.GET("/predict_stock", h.Predict, mw...)
	g.GET("/forecasts/history", h.History)
	if h.jobs != nil {
		g.POST("/forecasts", h.Enqueue, mw...)
	}
}

// Predict trains on the symbol's history and returns the forecast. Training runs inside the request.
func (h *ForecastHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Token != "" {
		c.Response().Header().Set(HeaderProgressToken, req.Token)
	}
	res, err := h.forecasts.Run(c.Request().Context(), usecase.ForecastParams{Symbol: req.Code, Token: req.Token})
	if err != nil {
		return errorResponse(c, h.logger, "forecast", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Enqueue queues a forecast and returns the token to poll.
func (h *ForecastHandler) Enqueue(c echo.Context) error {
	req := &models.EnqueueForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, err := h.jobs.Enqueue(c.Request().Context(), req.Code)
	if err != nil {
		return errorResponse(c, h.logger, "enqueue forecast", err)
	}
	c.Response().Header().Set(HeaderProgressToken, token)
	return xhttp.DataResponse(c, http.StatusAccepted, map[string]string{"token": token})
}

func (h *ForecastHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.forecasts.History(c.Request().Context(), req.Code, req.Limit)
	if err != nil {
		return errorResponse(c, h.logger, "forecast history", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
