// Package memory provides an in-memory label store used when no MongoDB is
// configured, and by tests.
package memory

import (
	"context"
	"sync"

	"github.com/parcelgate/shipping-agent/internal/core/domain"
)

// LabelRepository keeps purchased labels in process memory, newest first.
// History does not survive restarts; the carrier service stays the system
// of record.
type LabelRepository struct {
	mu     sync.Mutex
	labels []*domain.Label
}

func NewLabelRepository() *LabelRepository {
	return &LabelRepository{}
}

func (r *LabelRepository) Save(_ context.Context, label *domain.Label) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *label
	r.labels = append([]*domain.Label{&clone}, r.labels...)
	return nil
}

func (r *LabelRepository) List(_ context.Context, limit int) ([]*domain.Label, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.labels) {
		limit = len(r.labels)
	}
	out := make([]*domain.Label, 0, limit)
	for _, l := range r.labels[:limit] {
		clone := *l
		out = append(out, &clone)
	}
	return out, nil
}
