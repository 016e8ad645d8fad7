package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pocha/restic-api/repositories"
	"github.com/pocha/restic-api/services"
)

// errorJSON writes the error as a JSON body with a status matching its
// kind: unknown ids map to 404, credential problems to 400, everything
// else to the supplied fallback.
func errorJSON(c echo.Context, fallback int, err error) error {
	status := fallback
	switch {
	case errors.Is(err, repositories.ErrLocationNotFound),
		errors.Is(err, repositories.ErrScheduleNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNoCredential):
		status = http.StatusBadRequest
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
