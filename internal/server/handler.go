package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kevoconnell/chess-engine-llm-frontend/pkg/viewdto"
)

func (h *Handlers) handleView(c echo.Context) error {
	return c.JSON(http.StatusOK, h.viewer.View())
}

func (h *Handlers) handleBoardPNG(c echo.Context) error {
	img, err := h.viewer.BoardPNG(c.Request().Context())
	if err != nil {
		return writeErr(c, err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", img)
}

func (h *Handlers) handleGoTo(c echo.Context) error {
	var req viewdto.GoToRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.viewer.GoToMove(c.Request().Context(), req.Index); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, h.viewer.View())
}

func (h *Handlers) handleNext(c echo.Context) error {
	moved, err := h.viewer.Next(c.Request().Context())
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"moved": moved, "view": h.viewer.View()})
}

func (h *Handlers) handleAutoplay(c echo.Context) error {
	var req viewdto.AutoplayRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.viewer.SetAutoplay(c.Request().Context(), req.Enabled); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, h.viewer.View())
}

func (h *Handlers) handleLive(c echo.Context) error {
	if err := h.viewer.Live(c.Request().Context()); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, h.viewer.View())
}

func (h *Handlers) handleDrop(c echo.Context) error {
	var req viewdto.DropRequest
	if err := c.Bind(&req); err != nil || req.From == "" || req.To == "" {
		return badRequest(c, "from and to are required")
	}
	resp, err := h.viewer.Drop(c.Request().Context(), req.From, req.To)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
