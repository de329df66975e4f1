package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/parcelgate/shipping-agent/internal/api/metrics"
	"github.com/parcelgate/shipping-agent/internal/payment"
)

const (
	// HeaderPayment carries the base64 x402 payment payload.
	HeaderPayment = "X-PAYMENT"
	// HeaderPaymentResponse carries the settlement receipt back to the caller.
	HeaderPaymentResponse = "X-PAYMENT-RESPONSE"
)

// x402Challenge is the 402 body of the x402 protocol: the list of payment
// requirements the caller may satisfy.
type x402Challenge struct {
	X402Version int                    `json:"x402Version"`
	Error       string                 `json:"error"`
	Accepts     []payment.Requirements `json:"accepts"`
}

// X402 gates routes behind the x402 payment protocol. A request without an
// X-PAYMENT header receives a 402 challenge; a request with one is verified
// through the strategy and, when valid, settled before the gated operation
// runs. Each attempt is an independent request; nothing correlates the
// challenge with the retry server-side.
func X402(verifier payment.Verifier, cfg payment.Config, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqs, err := cfg.Requirements(resourceURL(c))
			if err != nil {
				logger.Error().Err(err).Msg("invalid payment configuration")
				return echo.NewHTTPError(http.StatusInternalServerError, "payment gate misconfigured")
			}

			ctx := c.Request().Context()
			proof := c.Request().Header.Get(HeaderPayment)

			if err := verifier.Verify(ctx, proof, reqs); err != nil {
				if errors.Is(err, payment.ErrNoProof) {
					metrics.PaymentChallengesTotal.WithLabelValues(verifier.Scheme()).Inc()
					return c.JSON(http.StatusPaymentRequired, x402Challenge{
						X402Version: payment.X402Version,
						Error:       "X-PAYMENT header is required",
						Accepts:     []payment.Requirements{reqs},
					})
				}
				metrics.PaymentVerificationsTotal.WithLabelValues(verifier.Scheme(), "rejected").Inc()
				logger.Warn().Err(err).Str("path", c.Path()).Msg("payment rejected")
				return c.JSON(http.StatusPaymentRequired, x402Challenge{
					X402Version: payment.X402Version,
					Error:       err.Error(),
					Accepts:     []payment.Requirements{reqs},
				})
			}
			metrics.PaymentVerificationsTotal.WithLabelValues(verifier.Scheme(), "accepted").Inc()

			// Settle before running the gated operation so the receipt
			// header can still be attached to the response.
			if settler, ok := verifier.(payment.Settler); ok {
				receipt, err := settler.Settle(ctx, proof, reqs)
				if err != nil {
					logger.Error().Err(err).Msg("payment settlement failed")
					return c.JSON(http.StatusPaymentRequired, x402Challenge{
						X402Version: payment.X402Version,
						Error:       "payment settlement failed",
						Accepts:     []payment.Requirements{reqs},
					})
				}
				c.Response().Header().Set(HeaderPaymentResponse, receipt)
			}

			return next(c)
		}
	}
}

func resourceURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host + c.Request().URL.Path
}
