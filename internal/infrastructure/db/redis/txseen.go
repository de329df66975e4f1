package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const replayTTL = 24 * time.Hour

// ReplayMarker records payment transaction hashes that already bought a
// request, backed by Redis. Key format: payment_tx:<hash>
type ReplayMarker struct {
	client *redis.Client
}

// NewReplayMarker creates a ReplayMarker wrapping the given Redis client.
func NewReplayMarker(client *redis.Client) *ReplayMarker {
	return &ReplayMarker{client: client}
}

// Seen reports whether this hash has already been presented as payment.
func (m *ReplayMarker) Seen(ctx context.Context, txHash string) (bool, error) {
	n, err := m.client.Exists(ctx, m.key(txHash)).Result()
	if err != nil {
		return false, fmt.Errorf("replay check: %w", err)
	}
	return n > 0, nil
}

// Mark records the hash as used (expires after replayTTL).
func (m *ReplayMarker) Mark(ctx context.Context, txHash string) error {
	return m.client.Set(ctx, m.key(txHash), "1", replayTTL).Err()
}

func (m *ReplayMarker) key(txHash string) string {
	return "payment_tx:" + txHash
}
