package ports

import (
	"context"

	"github.com/parcelgate/shipping-agent/internal/core/domain"
)

// CompletionClient is the minimal surface of a text-completion model
// provider: prompt in, free text out. The reply is expected to contain a
// JSON object or a bare integer, but nothing here enforces that.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, maxTokens int64) (string, error)
}

// ItemParser turns a free-text item description into shipping attributes.
// It never fails: any model or parse error yields the documented fallback,
// distinguishable via ParsedItemInfo.Source.
type ItemParser interface {
	ParseItemDescription(ctx context.Context, description string) domain.ParsedItemInfo
}

// Advisor picks the best rate for an item from the raw, unfiltered offer
// list. Returns the chosen offer's rate id, falling back to the cheapest
// offer when the model is unhelpful, or "" for an empty list.
type Advisor interface {
	RecommendRate(ctx context.Context, item domain.ParsedItemInfo, offers []domain.RateOffer) string
}

// RateProvider is the carrier-aggregation service: shipment creation, rate
// retrieval, and label purchase.
type RateProvider interface {
	CreateShipment(ctx context.Context, from, to domain.Address, item domain.ParsedItemInfo) (*domain.Shipment, error)
	GetShipment(ctx context.Context, shipmentID string) (*domain.Shipment, error)
	// GetShippingQuotes re-fetches the shipment and returns its offers
	// filtered to the supported carrier, minus explicitly unavailable ones,
	// sorted ascending by numeric price.
	GetShippingQuotes(ctx context.Context, shipmentID string) ([]domain.ShippingQuote, error)
	PurchaseLabel(ctx context.Context, rateID string) (*domain.Label, error)
}

// LabelRepository stores purchased labels for the history endpoint.
type LabelRepository interface {
	Save(ctx context.Context, label *domain.Label) error
	List(ctx context.Context, limit int) ([]*domain.Label, error)
}

// QuoteInput carries everything needed to run the quote flow. When Item is
// non-nil the extractor is skipped.
type QuoteInput struct {
	Description string
	Item        *domain.ParsedItemInfo
	From        domain.Address
	To          domain.Address
}

// QuoteResult is the combined outcome of the quote flow.
type QuoteResult struct {
	ParsedInfo  domain.ParsedItemInfo
	ShipmentID  string
	Quotes      []domain.ShippingQuote
	Recommended *domain.ShippingQuote
}

// PurchaseInput carries everything needed to run the full purchase flow.
// SelectedRateID, when set, skips the advisor.
type PurchaseInput struct {
	Description    string
	Item           *domain.ParsedItemInfo
	From           domain.Address
	To             domain.Address
	SelectedRateID string
	PaymentTxHash  string
}

// PurchaseResult is the combined outcome of the purchase flow.
type PurchaseResult struct {
	ParsedInfo  domain.ParsedItemInfo
	Quotes      []domain.ShippingQuote
	Recommended *domain.ShippingQuote
	Label       domain.Label
}

// ShippingService defines the orchestration use-cases.
type ShippingService interface {
	Quote(ctx context.Context, input QuoteInput) (*QuoteResult, error)
	PurchaseLabel(ctx context.Context, input PurchaseInput) (*PurchaseResult, error)
	// PurchaseLabelByRate purchases directly against a rate id obtained from
	// an earlier quote call (web flow). The payment tx hash is stamped onto
	// the label.
	PurchaseLabelByRate(ctx context.Context, rateID, paymentTxHash string) (*domain.Label, error)
	ListLabels(ctx context.Context, limit int) ([]*domain.Label, error)
}
