// Package client provides a Go client for the shipping agent API. Gated
// calls follow the pay-on-402 protocol: a first attempt without proof, an
// on-chain USDC payment per the returned requirements, and one retry with
// the transaction hash attached.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	headerPaymentTx = "X-PAYMENT-TX"
	requestTimeout  = 60 * time.Second
)

// Payer settles a payment challenge and returns the transaction hash proof.
// Implemented by the go-ethereum wallet; stubbed in tests.
type Payer interface {
	Pay(ctx context.Context, req PaymentRequired) (txHash string, err error)
}

// PaymentRequired is the server's 402 challenge body for the web routes.
type PaymentRequired struct {
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Network      string `json:"network"`
	Recipient    string `json:"recipient"`
	USDCContract string `json:"usdcContract"`
}

type challengeBody struct {
	Error           string          `json:"error"`
	Message         string          `json:"message,omitempty"`
	PaymentRequired PaymentRequired `json:"paymentRequired"`
}

// --- Request / response shapes (mirroring the server contract) ---

type Address struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type QuoteRequest struct {
	ItemDescription string  `json:"itemDescription"`
	FromAddress     Address `json:"fromAddress"`
	ToAddress       Address `json:"toAddress"`
}

type ParsedInfo struct {
	Weight     float64 `json:"weight"`
	WeightUnit string  `json:"weightUnit"`
	Value      float64 `json:"value,omitempty"`
	Category   string  `json:"category,omitempty"`
	Fragile    bool    `json:"fragile"`
	Source     string  `json:"source"`
}

type Quote struct {
	Carrier       string `json:"carrier"`
	ServiceName   string `json:"serviceName"`
	Price         string `json:"price"`
	Currency      string `json:"currency"`
	EstimatedDays int    `json:"estimatedDays"`
	RateID        string `json:"rateId"`
}

type QuoteResponse struct {
	ParsedInfo  ParsedInfo `json:"parsedInfo"`
	Quotes      []Quote    `json:"quotes"`
	Recommended *Quote     `json:"recommended,omitempty"`
	ShipmentID  string     `json:"shipmentId"`
}

type LabelRequest struct {
	RateID  string `json:"rateId"`
	Carrier string `json:"carrier,omitempty"`
	Service string `json:"service,omitempty"`
	Price   string `json:"price,omitempty"`
}

type Label struct {
	LabelURL       string `json:"labelUrl"`
	TrackingNumber string `json:"trackingNumber"`
	Carrier        string `json:"carrier"`
	Service        string `json:"service"`
	Cost           string `json:"cost"`
	PaymentTxHash  string `json:"paymentTxHash,omitempty"`
}

type LabelResponse struct {
	Success bool  `json:"success"`
	Label   Label `json:"label"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Client calls the shipping agent's browser-facing routes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	payer      Payer
}

func New(baseURL string, payer Payer) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		payer:      payer,
	}
}

// Health pings the server's liveness endpoint.
func (c *Client) Health(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode health response: %w", err)
	}
	return body.Status, nil
}

// GetQuotes runs the quote flow, paying on challenge.
func (c *Client) GetQuotes(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	var out QuoteResponse
	if err := c.postWithPayment(ctx, "/api/web/shipping/quote", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PurchaseLabel purchases a label for a rate obtained from GetQuotes,
// paying on challenge.
func (c *Client) PurchaseLabel(ctx context.Context, req LabelRequest) (*LabelResponse, error) {
	var out LabelResponse
	if err := c.postWithPayment(ctx, "/api/web/shipping/label", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// postWithPayment posts once without proof; on a 402 challenge it pays and
// retries exactly once with the tx hash attached. The server keeps no state
// between the two attempts.
func (c *Client) postWithPayment(ctx context.Context, path string, body, out any) error {
	status, respBody, err := c.post(ctx, path, body, "")
	if err != nil {
		return err
	}

	if status == http.StatusPaymentRequired {
		var challenge challengeBody
		if err := json.Unmarshal(respBody, &challenge); err != nil {
			return fmt.Errorf("decode payment challenge: %w", err)
		}
		if c.payer == nil {
			return fmt.Errorf("payment required (%s %s) but no payer configured",
				challenge.PaymentRequired.Amount, challenge.PaymentRequired.Currency)
		}

		txHash, err := c.payer.Pay(ctx, challenge.PaymentRequired)
		if err != nil {
			return fmt.Errorf("payment failed: %w", err)
		}

		status, respBody, err = c.post(ctx, path, body, txHash)
		if err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		return apiError(status, respBody)
	}
	return json.Unmarshal(respBody, out)
}

func (c *Client) post(ctx context.Context, path string, body any, txHash string) (int, []byte, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if txHash != "" {
		req.Header.Set(headerPaymentTx, txHash)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func apiError(status int, body []byte) error {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return fmt.Errorf("server returned %d: %s", status, envelope.Message)
		}
		if envelope.Error != "" {
			return fmt.Errorf("server returned %d: %s", status, envelope.Error)
		}
	}
	return fmt.Errorf("server returned %d", status)
}
