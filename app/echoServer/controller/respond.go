// Package controller holds what the per-resource controllers share.
package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"bikerental/app/echoServer/validation"
	"bikerental/util/apperr"

	"github.com/labstack/echo/v4"
)

func Status(err error) int {
	switch apperr.Code(err) {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.InvalidState, apperr.Conflict:
		return http.StatusConflict
	case apperr.Gateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Fail writes the JSON error body for err. Coded errors carry their message;
// anything else is logged and hidden behind "internal error".
func Fail(c echo.Context, log *slog.Logger, op string, err error) error {
	status := Status(err)
	if status == http.StatusInternalServerError {
		log.Error(op, "path", c.Path(), "err", err)
		return c.JSON(status, echo.Map{"message": "internal error"})
	}
	log.Warn(op, "path", c.Path(), "code", apperr.Code(err), "err", err)
	return c.JSON(status, echo.Map{
		"message": apperr.Message(err),
		"code":    apperr.Code(err),
	})
}

// BadRequest is the reply for bodies that fail to bind or validate. Field
// errors are listed per field.
func BadRequest(c echo.Context, msg string, err error) error {
	body := echo.Map{"message": msg}
	var fields validation.Errors
	switch {
	case errors.As(err, &fields):
		body["errors"] = fields
	case err != nil:
		body["errors"] = err.Error()
	}
	return c.JSON(http.StatusBadRequest, body)
}
