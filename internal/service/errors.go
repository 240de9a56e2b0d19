// Package service exposes the repository and coordinator operations over
// HTTP. Handlers translate between JSON and domain calls; they contain no
// entity-shape logic of their own.
package service

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hearthkeep/hearthkeep/internal/models"
	"github.com/hearthkeep/hearthkeep/internal/storage"
)

// httpError maps the error taxonomy onto the transport contract:
// NotFound -> 404; AlreadyExists, InvalidArgument and membership
// violations -> 400; IOFailure and unrecovered Corrupted -> 500. Nothing
// is retried here; retry is the caller's concern.
func httpError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrAlreadyExists),
		errors.Is(err, models.ErrInvalidArgument),
		errors.Is(err, models.ErrDuplicateMember),
		errors.Is(err, models.ErrAbsentMember):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
