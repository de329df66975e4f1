package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/parcelgate/shipping-agent/internal/core/domain"
)

func handleError(t *testing.T, err error) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/shipping/quote", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error envelope is not JSON: %s", rec.Body.String())
	}
	return rec, body.Error
}

func TestErrorHandler_NoRatesIs422(t *testing.T) {
	rec, msg := handleError(t, domain.ErrNoRatesAvailable)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if msg != "no shipping rates available" {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestErrorHandler_QuoteFetchIs502WithGenericMessage(t *testing.T) {
	wrapped := fmt.Errorf("%w: POST /shipments/: status 500", domain.ErrQuoteFetch)
	rec, msg := handleError(t, wrapped)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
	// The upstream detail stays in the logs.
	if msg != domain.ErrQuoteFetch.Error() {
		t.Errorf("upstream detail leaked to client: %q", msg)
	}
}

func TestErrorHandler_LabelPurchaseIs502WithDiagnostics(t *testing.T) {
	wrapped := fmt.Errorf("%w: rate expired", domain.ErrLabelPurchase)
	rec, msg := handleError(t, wrapped)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
	if msg != wrapped.Error() {
		t.Errorf("carrier diagnostics lost: %q", msg)
	}
}

func TestErrorHandler_EchoHTTPErrorPassesThrough(t *testing.T) {
	rec, msg := handleError(t, echo.NewHTTPError(http.StatusBadRequest, "zip is required"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if msg != "zip is required" {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestErrorHandler_UnknownErrorIs500Generic(t *testing.T) {
	rec, msg := handleError(t, errors.New("nil pointer somewhere"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if msg != "internal server error" {
		t.Errorf("internal detail leaked: %q", msg)
	}
}
