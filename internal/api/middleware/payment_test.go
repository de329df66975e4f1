package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/parcelgate/shipping-agent/internal/payment"
)

var discardLogger = zerolog.Nop()

func paymentConfig() payment.Config {
	return payment.Config{
		Price:         "$0.001",
		Network:       "base-sepolia",
		Recipient:     "0x1111111111111111111111111111111111111111",
		TokenContract: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
	}
}

// ---------------------------------------------------------------------------
// Stub verifier / settler
// ---------------------------------------------------------------------------

type stubVerifier struct {
	verifyErr error
	lastProof string
	lastReqs  payment.Requirements
}

func (v *stubVerifier) Scheme() string { return "stub" }

func (v *stubVerifier) Verify(_ context.Context, proof string, reqs payment.Requirements) error {
	v.lastProof = proof
	v.lastReqs = reqs
	if proof == "" {
		return payment.ErrNoProof
	}
	return v.verifyErr
}

type stubSettler struct {
	stubVerifier
	receipt   string
	settleErr error
	settled   int
}

func (s *stubSettler) Settle(_ context.Context, _ string, _ payment.Requirements) (string, error) {
	s.settled++
	if s.settleErr != nil {
		return "", s.settleErr
	}
	return s.receipt, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func runGated(t *testing.T, mw echo.MiddlewareFunc, header, value string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/shipping/quote", nil)
	if value != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handlerRan := false
	h := mw(func(c echo.Context) error {
		handlerRan = true
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})
	if err := h(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec, handlerRan
}

// ---------------------------------------------------------------------------
// X402 middleware tests
// ---------------------------------------------------------------------------

func TestX402_MissingHeaderReturnsChallenge(t *testing.T) {
	verifier := &stubVerifier{}
	mw := X402(verifier, paymentConfig(), discardLogger)

	rec, ran := runGated(t, mw, HeaderPayment, "")

	if ran {
		t.Error("handler must not run without payment")
	}
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}

	var challenge struct {
		X402Version int                    `json:"x402Version"`
		Error       string                 `json:"error"`
		Accepts     []payment.Requirements `json:"accepts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &challenge); err != nil {
		t.Fatalf("decoding challenge: %v", err)
	}
	if challenge.X402Version != payment.X402Version {
		t.Errorf("wrong protocol version: %d", challenge.X402Version)
	}
	if challenge.Error != "X-PAYMENT header is required" {
		t.Errorf("wrong error text: %q", challenge.Error)
	}
	if len(challenge.Accepts) != 1 {
		t.Fatalf("expected 1 accepted requirement, got %d", len(challenge.Accepts))
	}
	reqs := challenge.Accepts[0]
	if reqs.Scheme != "exact" || reqs.MaxAmountRequired != "1000" || reqs.Network != "base-sepolia" {
		t.Errorf("unexpected requirements: %+v", reqs)
	}
	if reqs.Resource == "" {
		t.Error("requirements must name the gated resource")
	}
}

func TestX402_InvalidProofRejected(t *testing.T) {
	verifier := &stubVerifier{verifyErr: payment.ErrInvalidProof}
	mw := X402(verifier, paymentConfig(), discardLogger)

	rec, ran := runGated(t, mw, HeaderPayment, "bogus-proof")

	if ran {
		t.Error("handler must not run with an invalid proof")
	}
	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("expected 402, got %d", rec.Code)
	}
}

func TestX402_ValidProofSettlesAndRuns(t *testing.T) {
	settler := &stubSettler{receipt: "cmVjZWlwdA=="}
	mw := X402(settler, paymentConfig(), discardLogger)

	rec, ran := runGated(t, mw, HeaderPayment, "valid-proof")

	if !ran {
		t.Fatal("handler did not run")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if settler.settled != 1 {
		t.Errorf("expected exactly one settlement, got %d", settler.settled)
	}
	if got := rec.Header().Get(HeaderPaymentResponse); got != "cmVjZWlwdA==" {
		t.Errorf("settlement receipt header missing: %q", got)
	}
	if settler.lastProof != "valid-proof" {
		t.Errorf("proof not forwarded to verifier: %q", settler.lastProof)
	}
}

func TestX402_SettlementFailureBlocksHandler(t *testing.T) {
	settler := &stubSettler{settleErr: errors.New("facilitator down")}
	mw := X402(settler, paymentConfig(), discardLogger)

	rec, ran := runGated(t, mw, HeaderPayment, "valid-proof")

	if ran {
		t.Error("handler must not run when settlement fails")
	}
	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("expected 402, got %d", rec.Code)
	}
}

func TestX402_PlainVerifierNeedsNoSettlement(t *testing.T) {
	verifier := &stubVerifier{}
	mw := X402(verifier, paymentConfig(), discardLogger)

	rec, ran := runGated(t, mw, HeaderPayment, "valid-proof")

	if !ran {
		t.Fatal("handler did not run")
	}
	if got := rec.Header().Get(HeaderPaymentResponse); got != "" {
		t.Errorf("unexpected receipt header: %q", got)
	}
}
