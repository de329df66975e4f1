package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/parcelgate/shipping-agent/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stub completion client
// ---------------------------------------------------------------------------

type stubLLM struct {
	reply      string
	err        error
	lastPrompt string
	calls      int
}

func (s *stubLLM) Complete(_ context.Context, prompt string, _ int64) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// ParseItemDescription tests
// ---------------------------------------------------------------------------

func TestItemParser_ParsesCleanJSON(t *testing.T) {
	llm := &stubLLM{reply: `{"weight": 3, "weightUnit": "lb", "value": 800, "category": "electronics", "fragile": true}`}
	parser := NewItemParserService(llm, discardLogger)

	info := parser.ParseItemDescription(context.Background(), "A small laptop, about 3 pounds")

	if info.Weight != 3 {
		t.Errorf("expected weight 3, got %g", info.Weight)
	}
	if info.WeightUnit != domain.WeightPounds {
		t.Errorf("expected unit lb, got %q", info.WeightUnit)
	}
	if info.Value != 800 {
		t.Errorf("expected value 800, got %g", info.Value)
	}
	if info.Category != "electronics" {
		t.Errorf("expected category electronics, got %q", info.Category)
	}
	if !info.Fragile {
		t.Error("expected fragile=true")
	}
	if info.Source != domain.SourceParsed {
		t.Errorf("expected source %q, got %q", domain.SourceParsed, info.Source)
	}
}

func TestItemParser_ExtractsJSONFromProse(t *testing.T) {
	llm := &stubLLM{reply: "Sure, here is the item analysis:\n{\"weight\": 1.5, \"weightUnit\": \"kg\", \"fragile\": false}\nLet me know if you need anything else."}
	parser := NewItemParserService(llm, discardLogger)

	info := parser.ParseItemDescription(context.Background(), "a book")

	if info.Weight != 1.5 {
		t.Errorf("expected weight 1.5, got %g", info.Weight)
	}
	if info.WeightUnit != domain.WeightKilograms {
		t.Errorf("expected unit kg, got %q", info.WeightUnit)
	}
	if info.Source != domain.SourceParsed {
		t.Errorf("expected source %q, got %q", domain.SourceParsed, info.Source)
	}
}

func TestItemParser_ParsesNestedDimensions(t *testing.T) {
	llm := &stubLLM{reply: `{"weight": 2, "weightUnit": "lb", "dimensions": {"length": 10, "width": 8, "height": 3, "unit": "in"}}`}
	parser := NewItemParserService(llm, discardLogger)

	info := parser.ParseItemDescription(context.Background(), "a boxed gadget")

	if info.Dimensions == nil {
		t.Fatal("expected dimensions to be parsed")
	}
	if info.Dimensions.Length != 10 || info.Dimensions.Width != 8 || info.Dimensions.Height != 3 {
		t.Errorf("unexpected dimensions: %+v", *info.Dimensions)
	}
	if info.Dimensions.Unit != "in" {
		t.Errorf("expected unit in, got %q", info.Dimensions.Unit)
	}
}

func TestItemParser_ModelErrorFallsBackToDefaults(t *testing.T) {
	llm := &stubLLM{err: errors.New("api unavailable")}
	parser := NewItemParserService(llm, discardLogger)

	info := parser.ParseItemDescription(context.Background(), "anything")

	if info != domain.FallbackItemInfo() {
		t.Errorf("expected fallback defaults, got %+v", info)
	}
	if info.Source != domain.SourceDefaulted {
		t.Errorf("expected source %q, got %q", domain.SourceDefaulted, info.Source)
	}
}

func TestItemParser_NoJSONInReplyFallsBackToDefaults(t *testing.T) {
	llm := &stubLLM{reply: "I cannot determine the item attributes."}
	parser := NewItemParserService(llm, discardLogger)

	info := parser.ParseItemDescription(context.Background(), "anything")

	if info != domain.FallbackItemInfo() {
		t.Errorf("expected fallback defaults, got %+v", info)
	}
}

func TestItemParser_MalformedJSONFallsBackToDefaults(t *testing.T) {
	llm := &stubLLM{reply: `{"weight": not-a-number}`}
	parser := NewItemParserService(llm, discardLogger)

	info := parser.ParseItemDescription(context.Background(), "anything")

	if info != domain.FallbackItemInfo() {
		t.Errorf("expected fallback defaults, got %+v", info)
	}
}

func TestItemParser_PromptQuotesDescription(t *testing.T) {
	llm := &stubLLM{reply: `{"weight": 1}`}
	parser := NewItemParserService(llm, discardLogger)

	parser.ParseItemDescription(context.Background(), `a "fragile" vase`)

	if !strings.Contains(llm.lastPrompt, `"a \"fragile\" vase"`) {
		t.Errorf("prompt does not quote the description: %s", llm.lastPrompt)
	}
	if !strings.Contains(llm.lastPrompt, "Respond ONLY with valid JSON") {
		t.Error("prompt missing the JSON-only instruction")
	}
}
