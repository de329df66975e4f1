package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/parcelgate/shipping-agent/internal/api/metrics"
	"github.com/parcelgate/shipping-agent/internal/core/domain"
	"github.com/parcelgate/shipping-agent/internal/core/ports"
)

// ShippingService sequences extractor → aggregator → advisor → purchaser.
// Strictly linear per request; no state survives between calls.
type ShippingService struct {
	parser  ports.ItemParser
	rates   ports.RateProvider
	advisor ports.Advisor
	labels  ports.LabelRepository
	logger  zerolog.Logger
}

func NewShippingService(
	parser ports.ItemParser,
	rates ports.RateProvider,
	advisor ports.Advisor,
	labels ports.LabelRepository,
	logger zerolog.Logger,
) *ShippingService {
	return &ShippingService{
		parser:  parser,
		rates:   rates,
		advisor: advisor,
		labels:  labels,
		logger:  logger,
	}
}

// Quote runs the full quote flow: parse the description (unless attributes
// were supplied), create a shipment, derive the ordered quote list, and ask
// the advisor for a recommendation over the raw offers.
func (s *ShippingService) Quote(ctx context.Context, input ports.QuoteInput) (*ports.QuoteResult, error) {
	info := s.resolveItemInfo(ctx, input.Item, input.Description)

	shipment, err := s.rates.CreateShipment(ctx, input.From, input.To, info)
	if err != nil {
		return nil, err
	}

	quotes, err := s.rates.GetShippingQuotes(ctx, shipment.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("shipment_id", shipment.ID).Int("quotes", len(quotes)).Msg("quotes fetched")
	metrics.QuotesFetchedTotal.Inc()

	recommendedID := s.advisor.RecommendRate(ctx, info, shipment.Offers)

	return &ports.QuoteResult{
		ParsedInfo:  info,
		ShipmentID:  shipment.ID,
		Quotes:      quotes,
		Recommended: findQuote(quotes, recommendedID),
	}, nil
}

// PurchaseLabel runs the full purchase flow. One shipment serves quote
// derivation, recommendation, and purchase alike; the selected rate must
// come from that shipment.
func (s *ShippingService) PurchaseLabel(ctx context.Context, input ports.PurchaseInput) (*ports.PurchaseResult, error) {
	info := s.resolveItemInfo(ctx, input.Item, input.Description)

	shipment, err := s.rates.CreateShipment(ctx, input.From, input.To, info)
	if err != nil {
		return nil, err
	}

	quotes, err := s.rates.GetShippingQuotes(ctx, shipment.ID)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, domain.ErrNoRatesAvailable
	}

	var recommended *domain.ShippingQuote
	rateID := input.SelectedRateID
	if rateID == "" {
		recommendedID := s.advisor.RecommendRate(ctx, info, shipment.Offers)
		recommended = findQuote(quotes, recommendedID)
		if recommended != nil {
			rateID = recommended.RateID
		} else {
			// Recommendation landed on a filtered-out offer; buy the
			// cheapest purchasable quote instead.
			rateID = quotes[0].RateID
		}
	}

	label, err := s.rates.PurchaseLabel(ctx, rateID)
	if err != nil {
		return nil, err
	}
	label.PaymentTxHash = input.PaymentTxHash
	s.recordLabel(ctx, label)

	return &ports.PurchaseResult{
		ParsedInfo:  info,
		Quotes:      quotes,
		Recommended: recommended,
		Label:       *label,
	}, nil
}

// PurchaseLabelByRate purchases directly against a rate id from an earlier
// quote call. A stale or foreign rate id is not validated locally and fails
// at the external service.
func (s *ShippingService) PurchaseLabelByRate(ctx context.Context, rateID, paymentTxHash string) (*domain.Label, error) {
	label, err := s.rates.PurchaseLabel(ctx, rateID)
	if err != nil {
		return nil, err
	}
	label.PaymentTxHash = paymentTxHash
	s.recordLabel(ctx, label)
	return label, nil
}

// ListLabels returns purchase history, newest first.
func (s *ShippingService) ListLabels(ctx context.Context, limit int) ([]*domain.Label, error) {
	return s.labels.List(ctx, limit)
}

func (s *ShippingService) resolveItemInfo(ctx context.Context, supplied *domain.ParsedItemInfo, description string) domain.ParsedItemInfo {
	if supplied != nil {
		return *supplied
	}
	return s.parser.ParseItemDescription(ctx, description)
}

// recordLabel persists the label for the history endpoint. Failures are
// logged, never surfaced: the carrier already issued the label.
func (s *ShippingService) recordLabel(ctx context.Context, label *domain.Label) {
	label.ID = uuid.NewString()
	label.PurchasedAt = time.Now().UTC()

	s.logger.Info().
		Str("tracking_number", label.TrackingNumber).
		Str("carrier", label.Carrier).
		Str("cost", label.Cost).
		Msg("label purchased")
	metrics.LabelsPurchasedTotal.WithLabelValues(label.Carrier).Inc()

	if err := s.labels.Save(ctx, label); err != nil {
		s.logger.Error().Err(err).Str("tracking_number", label.TrackingNumber).Msg("failed to record purchased label")
	}
}

func findQuote(quotes []domain.ShippingQuote, rateID string) *domain.ShippingQuote {
	if rateID == "" {
		return nil
	}
	for i := range quotes {
		if quotes[i].RateID == rateID {
			return &quotes[i]
		}
	}
	return nil
}
