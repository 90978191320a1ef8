package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/playback"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/viewer"
	"github.com/kevoconnell/chess-engine-llm-frontend/pkg/viewdto"
)

// writeErr maps session errors to status codes.
func writeErr(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, playback.ErrIndexOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, viewer.ErrClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, viewdto.ErrorResponse{OK: false, Error: err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, viewdto.ErrorResponse{OK: false, Error: msg})
}
