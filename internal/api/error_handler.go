package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/parcelgate/shipping-agent/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes. Upstream causes are
	// logged here; the client sees only the generic message.
	switch {
	case errors.Is(err, domain.ErrNoRatesAvailable):
		return http.StatusUnprocessableEntity, domain.ErrNoRatesAvailable.Error()
	case errors.Is(err, domain.ErrQuoteFetch):
		log.Error().Err(err).Str("path", c.Path()).Msg("quote fetch failed")
		return http.StatusBadGateway, domain.ErrQuoteFetch.Error()
	case errors.Is(err, domain.ErrLabelPurchase):
		log.Error().Err(err).Str("path", c.Path()).Msg("label purchase failed")
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, domain.ErrPaymentRequired):
		return http.StatusPaymentRequired, domain.ErrPaymentRequired.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
