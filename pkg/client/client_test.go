package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// ---------------------------------------------------------------------------
// Stub payer
// ---------------------------------------------------------------------------

type stubPayer struct {
	txHash  string
	err     error
	lastReq PaymentRequired
	calls   int
}

func (p *stubPayer) Pay(_ context.Context, req PaymentRequired) (string, error) {
	p.calls++
	p.lastReq = req
	if p.err != nil {
		return "", p.err
	}
	return p.txHash, nil
}

// gatedServer replies 402 until the request carries the expected tx hash.
func gatedServer(t *testing.T, wantTx string, result any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-PAYMENT-TX") != wantTx {
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(challengeBody{
				Error: "Payment required",
				PaymentRequired: PaymentRequired{
					Amount:       "0.001",
					Currency:     "USDC",
					Network:      "base-sepolia",
					Recipient:    "0x1111111111111111111111111111111111111111",
					USDCContract: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
				},
			})
			return
		}
		json.NewEncoder(w).Encode(result)
	}))
}

// ---------------------------------------------------------------------------
// Pay-on-402 tests
// ---------------------------------------------------------------------------

func TestGetQuotes_PaysOnChallengeAndRetries(t *testing.T) {
	const tx = "0xffeeddccbbaa99887766554433221100ffeeddccbbaa99887766554433221100"
	srv := gatedServer(t, tx, QuoteResponse{ShipmentID: "ship_1", Quotes: []Quote{{RateID: "rate_a", Price: "8.50"}}})
	defer srv.Close()

	payer := &stubPayer{txHash: tx}
	c := New(srv.URL, payer)

	resp, err := c.GetQuotes(context.Background(), QuoteRequest{ItemDescription: "a laptop"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payer.calls != 1 {
		t.Errorf("expected exactly one payment, got %d", payer.calls)
	}
	if payer.lastReq.Amount != "0.001" || payer.lastReq.Currency != "USDC" {
		t.Errorf("challenge terms not forwarded to payer: %+v", payer.lastReq)
	}
	if resp.ShipmentID != "ship_1" || len(resp.Quotes) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestGetQuotes_NoChallengeNoPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(QuoteResponse{ShipmentID: "ship_1"})
	}))
	defer srv.Close()

	payer := &stubPayer{txHash: "0x1"}
	c := New(srv.URL, payer)

	if _, err := c.GetQuotes(context.Background(), QuoteRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payer.calls != 0 {
		t.Errorf("payer must not run without a challenge, got %d calls", payer.calls)
	}
}

func TestGetQuotes_NoPayerSurfacesChallenge(t *testing.T) {
	srv := gatedServer(t, "never", QuoteResponse{})
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.GetQuotes(context.Background(), QuoteRequest{})
	if err == nil {
		t.Fatal("expected error without a payer")
	}
}

func TestGetQuotes_PaymentFailurePropagates(t *testing.T) {
	srv := gatedServer(t, "never", QuoteResponse{})
	defer srv.Close()

	payer := &stubPayer{err: errors.New("insufficient funds")}
	c := New(srv.URL, payer)

	_, err := c.GetQuotes(context.Background(), QuoteRequest{})
	if err == nil || payer.calls != 1 {
		t.Fatalf("expected propagated payment failure, got err=%v calls=%d", err, payer.calls)
	}
}

func TestPurchaseLabel_RetriesWithProof(t *testing.T) {
	const tx = "0xaabbccddeeff00112233445566778899aabbccddeeff00112233445566778899"
	srv := gatedServer(t, tx, LabelResponse{Success: true, Label: Label{TrackingNumber: "tn", LabelURL: "https://example.com/l.pdf"}})
	defer srv.Close()

	c := New(srv.URL, &stubPayer{txHash: tx})
	resp, err := c.PurchaseLabel(context.Background(), LabelRequest{RateID: "rate_a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success || resp.Label.TrackingNumber != "tn" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestPurchaseLabel_ServerErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "no shipping rates available"})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.PurchaseLabel(context.Background(), LabelRequest{RateID: "rate_x"})
	if err == nil {
		t.Fatal("expected error for 422")
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "ai-shipping-agent"})
	}))
	defer srv.Close()

	status, err := New(srv.URL, nil).Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "ok" {
		t.Errorf("expected ok, got %q", status)
	}
}
