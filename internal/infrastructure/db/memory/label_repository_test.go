package memory

import (
	"context"
	"testing"

	"github.com/parcelgate/shipping-agent/internal/core/domain"
)

func TestLabelRepository_NewestFirst(t *testing.T) {
	repo := NewLabelRepository()
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		if err := repo.Save(ctx, &domain.Label{ID: id}); err != nil {
			t.Fatalf("saving %s: %v", id, err)
		}
	}

	labels, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labels) != 3 {
		t.Fatalf("expected 3 labels, got %d", len(labels))
	}
	if labels[0].ID != "third" || labels[2].ID != "first" {
		t.Errorf("labels not newest first: %s, %s, %s", labels[0].ID, labels[1].ID, labels[2].ID)
	}
}

func TestLabelRepository_LimitApplied(t *testing.T) {
	repo := NewLabelRepository()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		repo.Save(ctx, &domain.Label{ID: id})
	}

	labels, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labels) != 2 {
		t.Errorf("expected 2 labels, got %d", len(labels))
	}
}

func TestLabelRepository_ReturnsClones(t *testing.T) {
	repo := NewLabelRepository()
	ctx := context.Background()
	repo.Save(ctx, &domain.Label{ID: "x", Carrier: "USPS"})

	labels, _ := repo.List(ctx, 0)
	labels[0].Carrier = "mutated"

	again, _ := repo.List(ctx, 0)
	if again[0].Carrier != "USPS" {
		t.Error("List must return copies, not the stored labels")
	}
}
