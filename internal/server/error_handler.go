package server

import (
	"errors"
	"fmt"
	"net/http"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/chat-server/internal/models"
)

// errorHandler translates errors into the response envelope. Domain
// sentinels map to their natural status codes; anything unrecognized is a
// logged 500 with a generic message so internals stay out of responses.
func errorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "internal error"

		var he *echo.HTTPError
		var ve validator.ValidationErrors
		switch {
		case errors.As(err, &he):
			code = he.Code
			message = fmt.Sprint(he.Message)
		case errors.As(err, &ve):
			code = http.StatusBadRequest
			message = ve.Error()
		case errors.Is(err, models.ErrValidation):
			code = http.StatusBadRequest
			message = err.Error()
		case errors.Is(err, models.ErrUnauthorized):
			code = http.StatusUnauthorized
			message = err.Error()
		case errors.Is(err, models.ErrForbidden):
			code = http.StatusForbidden
			message = err.Error()
		case errors.Is(err, models.ErrNotFound):
			code = http.StatusNotFound
			message = err.Error()
		case errors.Is(err, models.ErrConflict):
			code = http.StatusConflict
			message = err.Error()
		default:
			log.Errorw(c.Request().Context(), "unhandled error", "error", err)
		}

		resp := Response{Status: "error", Message: message}
		if err := c.JSON(code, resp); err != nil {
			log.Errorw(c.Request().Context(), "could not write error response", "error", err)
		}
	}
}
