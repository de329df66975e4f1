package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/parcelgate/shipping-agent/internal/api/metrics"
	"github.com/parcelgate/shipping-agent/internal/payment"
)

// HeaderPaymentTx carries the on-chain transaction hash the browser flow
// presents as payment proof.
const HeaderPaymentTx = "X-PAYMENT-TX"

// PaymentTxKey is the context key the verified hash is stored under.
const PaymentTxKey = "payment_tx"

type paymentRequired struct {
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Network      string `json:"network"`
	Recipient    string `json:"recipient"`
	USDCContract string `json:"usdcContract"`
}

type txChallenge struct {
	Error           string          `json:"error"`
	Message         string          `json:"message,omitempty"`
	PaymentRequired paymentRequired `json:"paymentRequired"`
}

// PaymentTx gates routes behind the X-PAYMENT-TX header check. The verifier
// only inspects the hash's shape; on-chain state is never consulted. On
// success the hash is stored in context under PaymentTxKey so handlers can
// stamp it onto the result.
func PaymentTx(verifier payment.Verifier, cfg payment.Config, logger zerolog.Logger) echo.MiddlewareFunc {
	required := paymentRequired{
		Amount:       cfg.DisplayAmount(),
		Currency:     "USDC",
		Network:      cfg.Network,
		Recipient:    cfg.Recipient,
		USDCContract: cfg.TokenContract,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			proof := c.Request().Header.Get(HeaderPaymentTx)

			if err := verifier.Verify(c.Request().Context(), proof, payment.Requirements{}); err != nil {
				if errors.Is(err, payment.ErrNoProof) {
					metrics.PaymentChallengesTotal.WithLabelValues(verifier.Scheme()).Inc()
					return c.JSON(http.StatusPaymentRequired, txChallenge{
						Error:           "Payment required",
						PaymentRequired: required,
					})
				}
				metrics.PaymentVerificationsTotal.WithLabelValues(verifier.Scheme(), "rejected").Inc()
				logger.Warn().Err(err).Str("path", c.Path()).Msg("payment rejected")
				return c.JSON(http.StatusPaymentRequired, txChallenge{
					Error:           "Invalid payment",
					Message:         "Payment verification failed",
					PaymentRequired: required,
				})
			}
			metrics.PaymentVerificationsTotal.WithLabelValues(verifier.Scheme(), "accepted").Inc()

			c.Set(PaymentTxKey, proof)
			return next(c)
		}
	}
}
