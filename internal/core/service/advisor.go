package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/parcelgate/shipping-agent/internal/api/metrics"
	"github.com/parcelgate/shipping-agent/internal/core/domain"
	"github.com/parcelgate/shipping-agent/internal/core/ports"
)

const recommendationMaxTokens = 16

var firstInteger = regexp.MustCompile(`\d+`)

// AdvisorService asks the model to pick the best rate by ordinal position.
// Anything other than an in-range integer reply falls back to the cheapest
// offer.
type AdvisorService struct {
	llm    ports.CompletionClient
	logger zerolog.Logger
}

func NewAdvisorService(llm ports.CompletionClient, logger zerolog.Logger) *AdvisorService {
	return &AdvisorService{llm: llm, logger: logger}
}

// RecommendRate returns the rate id of the recommended offer, or "" when the
// offer list is empty. The offers are presented to the model raw and
// unfiltered, exactly as the aggregation service returned them.
func (s *AdvisorService) RecommendRate(ctx context.Context, item domain.ParsedItemInfo, offers []domain.RateOffer) string {
	if len(offers) == 0 {
		return ""
	}

	reply, err := s.llm.Complete(ctx, recommendationPrompt(item, offers), recommendationMaxTokens)
	if err != nil {
		s.logger.Warn().Err(err).Msg("recommendation model call failed, using cheapest rate")
		metrics.ModelFallbacksTotal.WithLabelValues("advisor").Inc()
		return cheapestOffer(offers).ID
	}

	if m := firstInteger.FindString(reply); m != "" {
		if n, convErr := strconv.Atoi(m); convErr == nil && n >= 1 && n <= len(offers) {
			return offers[n-1].ID
		}
	}

	s.logger.Warn().Str("reply", truncate(reply, 80)).Msg("unusable recommendation reply, using cheapest rate")
	metrics.ModelFallbacksTotal.WithLabelValues("advisor").Inc()
	return cheapestOffer(offers).ID
}

func recommendationPrompt(item domain.ParsedItemInfo, offers []domain.RateOffer) string {
	var list strings.Builder
	for i, o := range offers {
		fmt.Fprintf(&list, "%d. %s - %s: $%s (%d days)\n", i+1, o.Provider, o.ServiceName, o.Amount, o.EstimatedDays)
	}

	fragile := "No"
	if item.Fragile {
		fragile = "Yes"
	}

	return fmt.Sprintf(`You are a shipping advisor. Based on the item details and available shipping quotes, recommend the best option.

Item details:
- Weight: %g %s
- Category: %s
- Fragile: %s
- Value: $%g

Available shipping options:
%s
Consider:
1. Cost-effectiveness
2. Speed vs. price balance
3. Reliability for the item type
4. Item fragility and value

Respond with ONLY the number (1, 2, 3, etc.) of your recommended option. No explanation needed.`,
		item.Weight, item.WeightUnit, item.Category, fragile, item.Value, list.String())
}

// cheapestOffer scans for the minimum decimal price. The first offer
// encountered wins ties; an unparseable amount never beats a parseable one.
func cheapestOffer(offers []domain.RateOffer) domain.RateOffer {
	best := offers[0]
	bestPrice, bestOK := parseAmount(best.Amount)
	for _, o := range offers[1:] {
		price, ok := parseAmount(o.Amount)
		if !ok {
			continue
		}
		if !bestOK || price.LessThan(bestPrice) {
			best, bestPrice, bestOK = o, price, true
		}
	}
	return best
}

func parseAmount(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
