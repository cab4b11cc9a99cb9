package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/hapi/pkg/hapi"
)

var ErrNotAFile = errors.New("entry is a directory")

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorBody{
			Type:    errType,
			Message: msg,
		},
	})
}

// writeArchiveError maps archive errors onto HTTP statuses.
func writeArchiveError(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, hapi.ErrNotFound):
		return writeError(c, http.StatusNotFound, "not_found_error", err.Error())
	case errors.Is(err, ErrNotAFile):
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
	case errors.Is(err, hapi.ErrChecksum),
		errors.Is(err, hapi.ErrDecode),
		errors.Is(err, hapi.ErrTruncated),
		errors.Is(err, hapi.ErrFormat):
		return writeError(c, http.StatusUnprocessableEntity, "corrupt_archive_error", err.Error())
	default:
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
}
