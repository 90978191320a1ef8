package server

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const wsWriteTimeout = 5 * time.Second

// handleWS pushes the current frame, then every changed frame, until the client goes away.
func (h *Handlers) handleWS(c echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		h.logger.Warn("ws_accept_failed", zap.Error(err))
		return nil
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	frames, unsubscribe := h.viewer.Subscribe()
	defer unsubscribe()

	// Nothing is read from the page; CloseRead keeps control frames flowing.
	ctx := conn.CloseRead(c.Request().Context())

	write := func(v any) error {
		wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
		defer cancel()
		return wsjson.Write(wctx, conn, v)
	}

	if err := write(h.viewer.View()); err != nil {
		return nil
	}
	h.logger.Debug("ws_client_connected", zap.String("remote", c.RealIP()))
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("ws_client_gone", zap.String("remote", c.RealIP()))
			return nil
		case f, ok := <-frames:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "viewer closed")
				return nil
			}
			if err := write(f); err != nil {
				if !errors.Is(err, context.Canceled) {
					h.logger.Debug("ws_write_failed", zap.Error(err))
				}
				return nil
			}
		}
	}
}
