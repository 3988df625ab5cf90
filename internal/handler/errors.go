package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightdeals/internal/filter"
	"github.com/dharmasatrya/flightdeals/internal/likes"
	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/search"
	"github.com/dharmasatrya/flightdeals/internal/share"
	"github.com/dharmasatrya/flightdeals/internal/store"
)

func respondError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, models.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    status,
	})
}

func bindError(c echo.Context, err error) error {
	return respondError(c, http.StatusBadRequest, "invalid_request", "Failed to parse request body: "+err.Error())
}

// handleError maps domain errors onto HTTP responses.
func handleError(c echo.Context, err error) error {
	var verr models.ValidationError
	switch {
	case errors.As(err, &verr):
		return respondError(c, http.StatusBadRequest, "validation_error", verr.Error())
	case errors.Is(err, filter.ErrUnknownKind), errors.Is(err, filter.ErrInvalidRange):
		return respondError(c, http.StatusBadRequest, "invalid_filter", err.Error())
	case errors.Is(err, likes.ErrInvalidClient):
		return respondError(c, http.StatusBadRequest, "invalid_client", err.Error())
	case errors.Is(err, search.ErrSessionNotFound):
		return respondError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, store.ErrNotFound):
		return respondError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, share.ErrCorruptedTicket):
		return respondError(c, http.StatusUnprocessableEntity, "corrupted_ticket", share.ErrCorruptedTicket.Error())
	}

	slog.ErrorContext(c.Request().Context(), "request failed", "error", err)
	return respondError(c, http.StatusInternalServerError, "internal_error", "Something went wrong")
}
