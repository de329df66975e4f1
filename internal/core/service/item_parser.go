package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/parcelgate/shipping-agent/internal/api/metrics"
	"github.com/parcelgate/shipping-agent/internal/core/domain"
	"github.com/parcelgate/shipping-agent/internal/core/ports"
)

const extractionMaxTokens = 1024

// ItemParserService extracts shipping attributes from a free-text item
// description via one model completion call. It degrades to fixed defaults
// instead of failing; ParsedItemInfo.Source tells the two outcomes apart.
type ItemParserService struct {
	llm    ports.CompletionClient
	logger zerolog.Logger
}

func NewItemParserService(llm ports.CompletionClient, logger zerolog.Logger) *ItemParserService {
	return &ItemParserService{llm: llm, logger: logger}
}

// ParseItemDescription asks the model for a JSON object matching the
// ParsedItemInfo shape and parses the first brace-delimited substring of the
// reply. Parsed fields are passed through without schema correction.
func (s *ItemParserService) ParseItemDescription(ctx context.Context, description string) domain.ParsedItemInfo {
	reply, err := s.llm.Complete(ctx, extractionPrompt(description), extractionMaxTokens)
	if err != nil {
		s.logger.Warn().Err(err).Msg("item extraction model call failed, using defaults")
		metrics.ModelFallbacksTotal.WithLabelValues("extractor").Inc()
		return domain.FallbackItemInfo()
	}

	raw, ok := jsonObjectSubstring(reply)
	if !ok {
		s.logger.Warn().Str("reply", truncate(reply, 200)).Msg("no JSON object in model reply, using defaults")
		metrics.ModelFallbacksTotal.WithLabelValues("extractor").Inc()
		return domain.FallbackItemInfo()
	}

	var info domain.ParsedItemInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		s.logger.Warn().Err(err).Msg("model reply JSON unparseable, using defaults")
		metrics.ModelFallbacksTotal.WithLabelValues("extractor").Inc()
		return domain.FallbackItemInfo()
	}

	info.Source = domain.SourceParsed
	s.logger.Debug().
		Float64("weight", info.Weight).
		Str("category", info.Category).
		Bool("fragile", info.Fragile).
		Msg("item description parsed")
	return info
}

func extractionPrompt(description string) string {
	return fmt.Sprintf(`You are a shipping expert AI. Parse the following item description and extract shipping-relevant information.

Item description: %q

Extract and provide the following information in JSON format:
- weight (estimate in pounds if not specified)
- weightUnit (lb or kg)
- dimensions (length, width, height in inches if mentioned)
- value (estimated dollar value if not specified, make a reasonable guess)
- category (e.g., electronics, clothing, books, fragile items, etc.)
- fragile (true/false)

Respond ONLY with valid JSON, no other text.

Example format:
{
  "weight": 2.5,
  "weightUnit": "lb",
  "dimensions": {
    "length": 10,
    "width": 8,
    "height": 3,
    "unit": "in"
  },
  "value": 50,
  "category": "electronics",
  "fragile": true
}`, description)
}

// jsonObjectSubstring returns the span from the first "{" to the last "}",
// tolerating prose the model wraps around the JSON object.
func jsonObjectSubstring(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
