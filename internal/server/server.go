package server

import (
	"context"
	"embed"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/kevoconnell/chess-engine-llm-frontend/pkg/viewdto"
)

//go:embed web/index.html
var webFiles embed.FS

// Viewer is the session surface the HTTP layer drives.
type Viewer interface {
	View() viewdto.Frame
	BoardPNG(ctx context.Context) ([]byte, error)
	GoToMove(ctx context.Context, index int) error
	Next(ctx context.Context) (bool, error)
	SetAutoplay(ctx context.Context, on bool) error
	Live(ctx context.Context) error
	Drop(ctx context.Context, from, to string) (viewdto.DropResponse, error)
	Subscribe() (<-chan viewdto.Frame, func())
}

type Handlers struct {
	viewer Viewer
	logger *zap.Logger
}

func NewHandlers(v Viewer, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{viewer: v, logger: logger}
}

// New constructs the echo instance serving the viewer page and API.
func New(h *Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz" || c.Path() == "/ws"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				h.logger.Warn("http_request_failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			h.logger.Debug("http_request", fields...)
			return nil
		},
	}))

	e.GET("/", h.handleIndex)
	e.GET("/healthz", h.handleHealthz)
	e.GET("/api/view", h.handleView)
	e.GET("/api/board.png", h.handleBoardPNG)
	e.POST("/api/playback/goto", h.handleGoTo)
	e.POST("/api/playback/next", h.handleNext)
	e.POST("/api/playback/autoplay", h.handleAutoplay)
	e.POST("/api/playback/live", h.handleLive)
	e.POST("/api/drop", h.handleDrop)
	e.GET("/ws", h.handleWS)
	return e
}

// Shutdown stops e, waiting at most timeout for open requests.
func Shutdown(e *echo.Echo, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.Shutdown(ctx)
}

func (h *Handlers) handleIndex(c echo.Context) error {
	page, err := webFiles.ReadFile("web/index.html")
	if err != nil {
		return writeErr(c, err)
	}
	return c.HTMLBlob(http.StatusOK, page)
}

func (h *Handlers) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
