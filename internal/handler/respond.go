package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HK9750/LMS-BACKEND/internal/errors"
)

// mapped renders a domain error as the JSON error envelope.
func mapped(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// invalidInput renders a 400 envelope with a specific message.
func invalidInput(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, errors.ErrorResponse{
		Success: false,
		Message: message,
		Code:    "INVALID_INPUT",
	})
}
