package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	"github.com/kimyeonkyu7453/SPP/internal/services/progress"
	xhttp "github.com/kimyeonkyu7453/SPP/pkg/http"
	xlogger "github.com/kimyeonkyu7453/SPP/pkg/logger"
)

// ProgressReader reads training progress.
type ProgressReader interface {
	Get(ctx context.Context, token string) (*models.Progress, error)
	Latest(ctx context.Context) (*models.Progress, error)
}

type progressMessage struct {
	Token    string `json:"token"`
	Progress int    `json:"progress"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// ProgressHandler serves progress polling and the websocket progress stream.
type ProgressHandler struct {
	logger   *xlogger.Logger
	progress ProgressReader
	poll     time.Duration
	upgrader websocket.Upgrader
}

var _ xhttp.Handler = (*ProgressHandler)(nil)

func NewProgressHandler(logger *xlogger.Logger, reader ProgressReader, poll time.Duration) *ProgressHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	return &ProgressHandler{
		logger:   logger,
		progress: reader,
		poll:     poll,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *ProgressHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/progress", h.Latest)
	e.GET("/api/progress", h.Get)
	e.GET("/ws/progress", h.Stream)
}

// Latest answers with the most recently started run's progress.
func (h *ProgressHandler) Latest(c echo.Context) error {
	p, err := h.progress.Latest(c.Request().Context())
	if err != nil {
		return errorResponse(c, h.logger, "read progress", err)
	}
	return c.JSON(http.StatusOK, map[string]int{"progress": p.Percent})
}

func (h *ProgressHandler) Get(c echo.Context) error {
	req := &models.ProgressRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.progress.Get(c.Request().Context(), req.Token)
	if err != nil {
		return errorResponse(c, h.logger, "read progress", err)
	}
	return c.JSON(http.StatusOK, p)
}

// Stream pushes a message on every progress change until the run is done or the client leaves.
func (h *ProgressHandler) Stream(c echo.Context) error {
	req := &models.ProgressRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()
	p, err := h.progress.Get(ctx, req.Token)
	if err != nil {
		return errorResponse(c, h.logger, "read progress", err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		// reads only surface the client closing
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()
	last := -1
	for {
		if p.Percent != last || p.Done {
			msg := progressMessage{Token: req.Token, Progress: p.Percent, Done: p.Done, Error: p.Error}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("progress stream write failed", xlogger.Error(err))
				return nil
			}
			last = p.Percent
		}
		if p.Done {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), time.Now().Add(time.Second))
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		next, err := h.progress.Get(ctx, req.Token)
		if errors.Is(err, progress.ErrUnknownToken) {
			// expired after finishing; report what was last seen as final
			next = &models.Progress{Token: req.Token, Percent: p.Percent, Done: true, Error: p.Error}
		} else if err != nil {
			h.logger.Warn("progress stream read failed", xlogger.Error(err))
			return nil
		}
		p = next
	}
}
