package domain

import (
	"errors"
	"time"
)

var (
	// ErrQuoteFetch wraps any upstream failure while creating a shipment or
	// fetching rates from the carrier-aggregation service.
	ErrQuoteFetch = errors.New("failed to get shipping quotes")
	// ErrLabelPurchase wraps any upstream failure while purchasing a label.
	ErrLabelPurchase = errors.New("failed to purchase shipping label")
	// ErrNoRatesAvailable is returned when a shipment yields zero usable rates.
	ErrNoRatesAvailable = errors.New("no shipping rates available")
	// ErrPaymentRequired signals a gated operation attempted without valid proof.
	ErrPaymentRequired = errors.New("payment required")
)

// WeightUnit is the unit the item weight is expressed in.
type WeightUnit string

const (
	WeightPounds    WeightUnit = "lb"
	WeightKilograms WeightUnit = "kg"
)

// ParseSource records whether item attributes came from the model or from
// the documented fallback. Callers can distinguish genuine AI output from
// defaulted values.
type ParseSource string

const (
	SourceParsed    ParseSource = "parsed"
	SourceDefaulted ParseSource = "defaulted"
)

// Address is a sender or recipient location. Immutable input value; supplied
// fresh per request, compared only structurally.
type Address struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Dimensions is the physical size of a parcel.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

// ParsedItemInfo holds shipping-relevant attributes of one item. Produced
// once per request by the extractor (or supplied directly by the caller) and
// treated as immutable afterwards.
type ParsedItemInfo struct {
	Weight     float64     `json:"weight"`
	WeightUnit WeightUnit  `json:"weightUnit"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Value      float64     `json:"value,omitempty"`
	Category   string      `json:"category,omitempty"`
	Fragile    bool        `json:"fragile,omitempty"`
	Source     ParseSource `json:"source,omitempty"`
}

// FallbackItemInfo returns the fixed defaults used whenever the model call
// fails or its reply contains no parseable JSON.
func FallbackItemInfo() ParsedItemInfo {
	return ParsedItemInfo{
		Weight:     1,
		WeightUnit: WeightPounds,
		Value:      20,
		Category:   "general",
		Fragile:    false,
		Source:     SourceDefaulted,
	}
}

// ShippingQuote is one purchasable rate offer. RateID is the only field that
// round-trips to the purchaser and is valid only against the shipment it was
// derived from.
type ShippingQuote struct {
	Carrier       string `json:"carrier"`
	ServiceName   string `json:"serviceName"`
	Price         string `json:"price"`
	Currency      string `json:"currency"`
	EstimatedDays int    `json:"estimatedDays"`
	RateID        string `json:"rateId"`
}

// RateOffer is a raw rate as returned by the aggregation service, before any
// carrier or availability filtering. Available is nil when the service did
// not report a flag; only an explicit false means unavailable.
type RateOffer struct {
	ID            string   `json:"rateId"`
	Provider      string   `json:"provider"`
	ServiceName   string   `json:"serviceName"`
	Amount        string   `json:"amount"`
	Currency      string   `json:"currency"`
	EstimatedDays int      `json:"estimatedDays"`
	Available     *bool    `json:"available,omitempty"`
	Messages      []string `json:"messages,omitempty"`
}

// Unavailable reports whether the offer was explicitly marked unavailable.
func (o RateOffer) Unavailable() bool {
	return o.Available != nil && !*o.Available
}

// Shipment is the external service's record for one address-pair/parcel
// combination, holding every rate offer it produced. Created fresh per
// request; the service assigns the ID.
type Shipment struct {
	ID     string      `json:"shipmentId"`
	Offers []RateOffer `json:"offers"`
}

// Label is the result of a successful purchase. Never mutated; the carrier
// service remains the system of record.
type Label struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty"`
	Carrier        string    `json:"carrier" bson:"carrier"`
	Service        string    `json:"service" bson:"service"`
	Cost           string    `json:"cost" bson:"cost"`
	TrackingNumber string    `json:"trackingNumber" bson:"tracking_number"`
	LabelURL       string    `json:"labelUrl" bson:"label_url"`
	PaymentTxHash  string    `json:"paymentTxHash,omitempty" bson:"payment_tx_hash,omitempty"`
	PurchasedAt    time.Time `json:"purchasedAt" bson:"purchased_at"`
}
