package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const facilitatorTimeout = 30 * time.Second

// X402Version is the protocol revision this gate speaks.
const X402Version = 1

// Payload is the decoded X-PAYMENT header: a signed exact-scheme payment
// authorization.
type Payload struct {
	X402Version int          `json:"x402Version"`
	Scheme      string       `json:"scheme"`
	Network     string       `json:"network"`
	Payload     ExactPayload `json:"payload"`
}

// ExactPayload carries the EIP-3009 transfer authorization and its
// signature. Cryptographic validation is owned by the facilitator.
type ExactPayload struct {
	Signature     string        `json:"signature"`
	Authorization Authorization `json:"authorization"`
}

type Authorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

type facilitatorRequest struct {
	X402Version         int          `json:"x402Version"`
	PaymentPayload      Payload      `json:"paymentPayload"`
	PaymentRequirements Requirements `json:"paymentRequirements"`
}

type verifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
}

type settleResponse struct {
	Success     bool   `json:"success"`
	ErrorReason string `json:"errorReason,omitempty"`
	Transaction string `json:"transaction,omitempty"`
	Network     string `json:"network,omitempty"`
}

// FacilitatorVerifier implements the x402 strategy: the base64 X-PAYMENT
// header is decoded, sanity-checked against the requirements, and then
// delegated to a facilitator service for cryptographic verification and
// settlement.
type FacilitatorVerifier struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewFacilitatorVerifier(baseURL string, logger zerolog.Logger) *FacilitatorVerifier {
	return &FacilitatorVerifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: facilitatorTimeout},
		logger:     logger,
	}
}

func (v *FacilitatorVerifier) Scheme() string { return "x402" }

// Verify decodes the proof and asks the facilitator whether the signed
// authorization satisfies the requirements.
func (v *FacilitatorVerifier) Verify(ctx context.Context, proof string, reqs Requirements) error {
	if proof == "" {
		return ErrNoProof
	}

	payload, err := decodePayload(proof)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if payload.Scheme != reqs.Scheme {
		return fmt.Errorf("%w: scheme %q not accepted", ErrInvalidProof, payload.Scheme)
	}
	if payload.Network != reqs.Network {
		return fmt.Errorf("%w: network %q not accepted", ErrInvalidProof, payload.Network)
	}

	var resp verifyResponse
	if err := v.post(ctx, "/verify", facilitatorRequest{
		X402Version:         X402Version,
		PaymentPayload:      *payload,
		PaymentRequirements: reqs,
	}, &resp); err != nil {
		return fmt.Errorf("%w: facilitator verify: %v", ErrInvalidProof, err)
	}
	if !resp.IsValid {
		return fmt.Errorf("%w: %s", ErrInvalidProof, resp.InvalidReason)
	}
	return nil
}

// Settle executes the verified payment and returns the base64 settlement
// receipt for the X-PAYMENT-RESPONSE header.
func (v *FacilitatorVerifier) Settle(ctx context.Context, proof string, reqs Requirements) (string, error) {
	payload, err := decodePayload(proof)
	if err != nil {
		return "", fmt.Errorf("decode payment payload: %w", err)
	}

	var resp settleResponse
	if err := v.post(ctx, "/settle", facilitatorRequest{
		X402Version:         X402Version,
		PaymentPayload:      *payload,
		PaymentRequirements: reqs,
	}, &resp); err != nil {
		return "", fmt.Errorf("facilitator settle: %w", err)
	}
	if !resp.Success {
		return "", fmt.Errorf("facilitator settle: %s", resp.ErrorReason)
	}

	v.logger.Info().
		Str("transaction", resp.Transaction).
		Str("network", resp.Network).
		Msg("payment settled")

	receipt, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("encode settlement receipt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(receipt), nil
}

func decodePayload(proof string) (*Payload, error) {
	raw, err := base64.StdEncoding.DecodeString(proof)
	if err != nil {
		return nil, fmt.Errorf("not valid base64: %v", err)
	}
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("not a payment payload: %v", err)
	}
	return &payload, nil
}

func (v *FacilitatorVerifier) post(ctx context.Context, path string, body facilitatorRequest, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
