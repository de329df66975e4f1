package payment

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
)

// txHashPattern matches a 0x-prefixed 32-byte transaction hash.
var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ReplayMarker tracks payment hashes that already bought a request, so one
// transfer cannot be presented twice. Optional; a nil marker leaves the
// verifier fully stateless.
type ReplayMarker interface {
	Seen(ctx context.Context, txHash string) (bool, error)
	Mark(ctx context.Context, txHash string) error
}

// TxHashVerifier implements the browser-facing strategy: any syntactically
// valid transaction hash counts as proof. It never queries the chain to
// confirm the payment happened, to whom, or for how much. Not production
// verification.
type TxHashVerifier struct {
	replay ReplayMarker
	logger zerolog.Logger
}

func NewTxHashVerifier(replay ReplayMarker, logger zerolog.Logger) *TxHashVerifier {
	return &TxHashVerifier{replay: replay, logger: logger}
}

func (v *TxHashVerifier) Scheme() string { return "txhash" }

// Verify accepts any well-formed hash. When a replay marker is configured,
// a hash that already paid for a request is rejected; marker errors are
// logged and ignored rather than blocking the request.
func (v *TxHashVerifier) Verify(ctx context.Context, proof string, _ Requirements) error {
	if proof == "" {
		return ErrNoProof
	}
	if !txHashPattern.MatchString(proof) {
		return fmt.Errorf("%w: malformed transaction hash", ErrInvalidProof)
	}

	if v.replay != nil {
		seen, err := v.replay.Seen(ctx, proof)
		if err != nil {
			v.logger.Warn().Err(err).Msg("payment replay check failed, accepting proof")
		} else if seen {
			return fmt.Errorf("%w: transaction hash already used", ErrInvalidProof)
		}
		if err := v.replay.Mark(ctx, proof); err != nil {
			v.logger.Warn().Err(err).Msg("payment replay mark failed")
		}
	}

	v.logger.Debug().Str("tx_hash", proof).Msg("payment accepted without on-chain verification")
	return nil
}
