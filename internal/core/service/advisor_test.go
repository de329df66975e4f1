package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/parcelgate/shipping-agent/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testOffers() []domain.RateOffer {
	return []domain.RateOffer{
		{ID: "rate_a", Provider: "USPS", ServiceName: "Priority Mail", Amount: "8.50", Currency: "USD", EstimatedDays: 2},
		{ID: "rate_b", Provider: "USPS", ServiceName: "Ground Advantage", Amount: "5.25", Currency: "USD", EstimatedDays: 5},
		{ID: "rate_c", Provider: "USPS", ServiceName: "Priority Mail Express", Amount: "29.10", Currency: "USD", EstimatedDays: 1},
	}
}

// ---------------------------------------------------------------------------
// RecommendRate tests
// ---------------------------------------------------------------------------

func TestAdvisor_PicksOfferByOrdinal(t *testing.T) {
	llm := &stubLLM{reply: "3"}
	advisor := NewAdvisorService(llm, discardLogger)

	got := advisor.RecommendRate(context.Background(), domain.FallbackItemInfo(), testOffers())

	if got != "rate_c" {
		t.Errorf("expected rate_c, got %q", got)
	}
}

func TestAdvisor_ExtractsOrdinalFromProse(t *testing.T) {
	llm := &stubLLM{reply: "I recommend option 2 for the best balance."}
	advisor := NewAdvisorService(llm, discardLogger)

	got := advisor.RecommendRate(context.Background(), domain.FallbackItemInfo(), testOffers())

	if got != "rate_b" {
		t.Errorf("expected rate_b, got %q", got)
	}
}

func TestAdvisor_EmptyOffersReturnsEmpty(t *testing.T) {
	llm := &stubLLM{reply: "1"}
	advisor := NewAdvisorService(llm, discardLogger)

	if got := advisor.RecommendRate(context.Background(), domain.FallbackItemInfo(), nil); got != "" {
		t.Errorf("expected empty id for empty offers, got %q", got)
	}
	if llm.calls != 0 {
		t.Error("model must not be called for an empty offer list")
	}
}

func TestAdvisor_ModelErrorFallsBackToCheapest(t *testing.T) {
	llm := &stubLLM{err: errors.New("api unavailable")}
	advisor := NewAdvisorService(llm, discardLogger)

	got := advisor.RecommendRate(context.Background(), domain.FallbackItemInfo(), testOffers())

	if got != "rate_b" {
		t.Errorf("expected cheapest rate_b, got %q", got)
	}
}

func TestAdvisor_OutOfRangeOrdinalFallsBackToCheapest(t *testing.T) {
	llm := &stubLLM{reply: "7"}
	advisor := NewAdvisorService(llm, discardLogger)

	got := advisor.RecommendRate(context.Background(), domain.FallbackItemInfo(), testOffers())

	if got != "rate_b" {
		t.Errorf("expected cheapest rate_b, got %q", got)
	}
}

func TestAdvisor_NonNumericReplyFallsBackToCheapest(t *testing.T) {
	llm := &stubLLM{reply: "the priority one"}
	advisor := NewAdvisorService(llm, discardLogger)

	got := advisor.RecommendRate(context.Background(), domain.FallbackItemInfo(), testOffers())

	if got != "rate_b" {
		t.Errorf("expected cheapest rate_b, got %q", got)
	}
}

func TestAdvisor_CheapestSkipsUnparseableAmounts(t *testing.T) {
	llm := &stubLLM{err: errors.New("down")}
	advisor := NewAdvisorService(llm, discardLogger)

	offers := []domain.RateOffer{
		{ID: "rate_bad", Amount: "n/a"},
		{ID: "rate_ok", Amount: "12.00"},
	}
	if got := advisor.RecommendRate(context.Background(), domain.FallbackItemInfo(), offers); got != "rate_ok" {
		t.Errorf("expected rate_ok, got %q", got)
	}
}

func TestAdvisor_PromptListsOffersWithOrdinals(t *testing.T) {
	llm := &stubLLM{reply: "1"}
	advisor := NewAdvisorService(llm, discardLogger)

	item := domain.ParsedItemInfo{Weight: 3, WeightUnit: domain.WeightPounds, Category: "electronics", Fragile: true, Value: 800}
	advisor.RecommendRate(context.Background(), item, testOffers())

	for _, want := range []string{
		"1. USPS - Priority Mail: $8.50 (2 days)",
		"2. USPS - Ground Advantage: $5.25 (5 days)",
		"- Fragile: Yes",
		"Respond with ONLY the number",
	} {
		if !strings.Contains(llm.lastPrompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, llm.lastPrompt)
		}
	}
}
