package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	xhttp "github.com/kimyeonkyu7453/SPP/pkg/http"
	xlogger "github.com/kimyeonkyu7453/SPP/pkg/logger"
)

// NewsService runs and reads news sentiment monitoring.
type NewsService interface {
	Monitor(ctx context.Context) (*models.NewsSnapshot, error)
	Latest(ctx context.Context, keyword, sentiment string) ([]models.NewsItem, error)
}

type NewsHandler struct {
	logger *xlogger.Logger
	news   NewsService
}

var _ xhttp.Handler = (*NewsHandler)(nil)

func NewNewsHandler(logger *xlogger.Logger, news NewsService) *NewsHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &NewsHandler{logger: logger, news: news}
}

func (h *NewsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/news")
	g.GET("", h.List)
	g.POST("/monitor", h.Monitor)
}

// Monitor runs one monitoring pass inside the request and returns its snapshot.
func (h *NewsHandler) Monitor(c echo.Context) error {
	snap, err := h.news.Monitor(c.Request().Context())
	if err != nil {
		return errorResponse(c, h.logger, "news monitor", err)
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *NewsHandler) List(c echo.Context) error {
	req := &models.NewsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	items, err := h.news.Latest(c.Request().Context(), req.Keyword, req.Sentiment)
	if err != nil {
		return errorResponse(c, h.logger, "list news", err)
	}
	return xhttp.ListResponse(c, items, int64(len(items)))
}
