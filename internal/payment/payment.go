// Package payment holds the micropayment gate: the requirements advertised
// on a 402 challenge and the pluggable proof verification strategies. The
// x402 facilitator check and the permissive tx-hash check both sit behind
// the Verifier interface; which strategy gates a route is a wiring choice.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// USDC uses 6 decimal places on every supported network.
const usdcDecimals = 6

var (
	// ErrNoProof means the request carried no payment header at all.
	ErrNoProof = errors.New("payment proof missing")
	// ErrInvalidProof means the proof was present but rejected.
	ErrInvalidProof = errors.New("payment proof invalid")
)

// Requirements describes one acceptable payment, in the x402 exact-scheme
// wire shape. MaxAmountRequired is in atomic token units.
type Requirements struct {
	Scheme            string            `json:"scheme"`
	Network           string            `json:"network"`
	MaxAmountRequired string            `json:"maxAmountRequired"`
	Resource          string            `json:"resource"`
	Description       string            `json:"description"`
	MimeType          string            `json:"mimeType"`
	PayTo             string            `json:"payTo"`
	MaxTimeoutSeconds int               `json:"maxTimeoutSeconds"`
	Asset             string            `json:"asset"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// Config is the operator-supplied pricing for gated routes.
type Config struct {
	// Price is the dollar price per call, e.g. "$0.001".
	Price string
	// Network is the chain identifier, e.g. "base-sepolia".
	Network string
	// Recipient is the 0x address payments go to.
	Recipient string
	// TokenContract is the stablecoin contract address.
	TokenContract string
}

// DisplayAmount returns the price without the dollar sign, e.g. "0.001".
func (c Config) DisplayAmount() string {
	return strings.TrimPrefix(strings.TrimSpace(c.Price), "$")
}

// AtomicAmount converts the dollar price to atomic USDC units ("$0.001" →
// "1000").
func (c Config) AtomicAmount() (string, error) {
	d, err := decimal.NewFromString(c.DisplayAmount())
	if err != nil {
		return "", fmt.Errorf("parse payment price %q: %w", c.Price, err)
	}
	return d.Shift(usdcDecimals).Truncate(0).String(), nil
}

// Requirements renders the config as an exact-scheme requirements entry for
// the given resource URL.
func (c Config) Requirements(resource string) (Requirements, error) {
	amount, err := c.AtomicAmount()
	if err != nil {
		return Requirements{}, err
	}
	return Requirements{
		Scheme:            "exact",
		Network:           c.Network,
		MaxAmountRequired: amount,
		Resource:          resource,
		Description:       "AI shipping agent request fee",
		MimeType:          "application/json",
		PayTo:             c.Recipient,
		MaxTimeoutSeconds: 60,
		Asset:             c.TokenContract,
		Extra: map[string]string{
			"name":    "USDC",
			"version": "2",
		},
	}, nil
}

// Verifier validates a payment proof against the advertised requirements.
// The proof is the raw header value of the strategy's payment header.
type Verifier interface {
	// Scheme identifies the strategy for logs and metrics.
	Scheme() string
	// Verify returns nil when the proof satisfies reqs, ErrNoProof when the
	// proof is empty, and ErrInvalidProof (wrapped with a reason) otherwise.
	Verify(ctx context.Context, proof string, reqs Requirements) error
}

// Settler is implemented by strategies that capture funds after the gated
// operation succeeds (the x402 facilitator flow).
type Settler interface {
	// Settle executes the payment and returns the encoded settlement
	// response for the X-PAYMENT-RESPONSE header.
	Settle(ctx context.Context, proof string, reqs Requirements) (string, error)
}
