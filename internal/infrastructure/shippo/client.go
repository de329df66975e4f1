// Package shippo implements the carrier-aggregation client against the
// Shippo REST API: shipment creation, rate retrieval, and label purchase.
package shippo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/parcelgate/shipping-agent/internal/core/domain"
)

const (
	defaultBaseURL = "https://api.goshippo.com"
	requestTimeout = 30 * time.Second

	// Parcel defaults applied when the extractor produced no dimensions.
	defaultLength = "10"
	defaultWidth  = "8"
	defaultHeight = "4"
	defaultUnit   = "in"

	// Shippo rejects addresses without contact details; test traffic gets
	// placeholders.
	defaultSenderEmail    = "sender@example.com"
	defaultSenderPhone    = "+1 555-123-4567"
	defaultRecipientEmail = "recipient@example.com"
	defaultRecipientPhone = "+1 555-987-6543"
)

// Client talks to the Shippo API with token auth. Carrier limits derived
// quotes to a single provider (test accounts only support USPS).
type Client struct {
	baseURL    string
	token      string
	carrier    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(baseURL, token, carrier string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		carrier:    carrier,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// --- Wire types ---

type addressPayload struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

type parcelPayload struct {
	Length       string `json:"length"`
	Width        string `json:"width"`
	Height       string `json:"height"`
	DistanceUnit string `json:"distance_unit"`
	Weight       string `json:"weight"`
	MassUnit     string `json:"mass_unit"`
}

type shipmentRequest struct {
	AddressFrom addressPayload  `json:"address_from"`
	AddressTo   addressPayload  `json:"address_to"`
	Parcels     []parcelPayload `json:"parcels"`
	Async       bool            `json:"async"`
}

type serviceLevel struct {
	Name string `json:"name"`
}

type messagePayload struct {
	Text string `json:"text"`
}

type ratePayload struct {
	ObjectID      string           `json:"object_id"`
	Provider      string           `json:"provider"`
	ServiceLevel  serviceLevel     `json:"servicelevel"`
	Amount        string           `json:"amount"`
	Currency      string           `json:"currency"`
	EstimatedDays int              `json:"estimated_days"`
	Available     *bool            `json:"available,omitempty"`
	Messages      []messagePayload `json:"messages,omitempty"`
}

type shipmentResponse struct {
	ObjectID string           `json:"object_id"`
	Rates    []ratePayload    `json:"rates"`
	Messages []messagePayload `json:"messages,omitempty"`
}

type transactionRequest struct {
	Rate          string `json:"rate"`
	LabelFileType string `json:"label_file_type"`
	Async         bool   `json:"async"`
}

type transactionResponse struct {
	ObjectID       string           `json:"object_id"`
	Status         string           `json:"status"`
	TrackingNumber string           `json:"tracking_number"`
	LabelURL       string           `json:"label_url"`
	Amount         string           `json:"amount"`
	Rate           *ratePayload     `json:"rate,omitempty"`
	ServiceLevel   *serviceLevel    `json:"servicelevel,omitempty"`
	Messages       []messagePayload `json:"messages,omitempty"`
}

// --- Operations ---

// CreateShipment registers the address pair and parcel with Shippo
// synchronously (async=false), so the response already carries the rate
// offers.
func (c *Client) CreateShipment(ctx context.Context, from, to domain.Address, item domain.ParsedItemInfo) (*domain.Shipment, error) {
	req := shipmentRequest{
		AddressFrom: toAddressPayload(from, defaultSenderEmail, defaultSenderPhone),
		AddressTo:   toAddressPayload(to, defaultRecipientEmail, defaultRecipientPhone),
		Parcels:     []parcelPayload{toParcelPayload(item)},
		Async:       false,
	}

	var resp shipmentResponse
	if err := c.do(ctx, http.MethodPost, "/shipments/", req, &resp); err != nil {
		c.logger.Error().Err(err).Msg("shippo create shipment failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrQuoteFetch, err)
	}

	c.logger.Debug().
		Str("shipment_id", resp.ObjectID).
		Int("rates", len(resp.Rates)).
		Msg("shippo shipment created")

	return toShipment(resp), nil
}

// GetShipment re-fetches a shipment by id, supporting an independent rate
// retrieval call.
func (c *Client) GetShipment(ctx context.Context, shipmentID string) (*domain.Shipment, error) {
	var resp shipmentResponse
	if err := c.do(ctx, http.MethodGet, "/shipments/"+shipmentID, nil, &resp); err != nil {
		c.logger.Error().Err(err).Str("shipment_id", shipmentID).Msg("shippo get shipment failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrQuoteFetch, err)
	}
	return toShipment(resp), nil
}

// GetShippingQuotes re-fetches the shipment and derives the quote list:
// configured carrier only, explicitly unavailable offers dropped (a missing
// flag counts as available), sorted ascending by numeric price.
func (c *Client) GetShippingQuotes(ctx context.Context, shipmentID string) ([]domain.ShippingQuote, error) {
	shipment, err := c.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	quotes := make([]domain.ShippingQuote, 0, len(shipment.Offers))
	for _, offer := range shipment.Offers {
		if offer.Provider != c.carrier || offer.Unavailable() {
			continue
		}
		quotes = append(quotes, domain.ShippingQuote{
			Carrier:       offer.Provider,
			ServiceName:   offer.ServiceName,
			Price:         offer.Amount,
			Currency:      offer.Currency,
			EstimatedDays: offer.EstimatedDays,
			RateID:        offer.ID,
		})
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		a, aOK := parsePrice(quotes[i].Price)
		b, bOK := parsePrice(quotes[j].Price)
		if !aOK || !bOK {
			return aOK // unparseable prices sink to the end
		}
		return a.LessThan(b)
	})

	return quotes, nil
}

// PurchaseLabel submits a label transaction for the rate. Any status other
// than SUCCESS is a failure, surfacing carrier diagnostics when present.
func (c *Client) PurchaseLabel(ctx context.Context, rateID string) (*domain.Label, error) {
	req := transactionRequest{Rate: rateID, LabelFileType: "PDF", Async: false}

	var resp transactionResponse
	if err := c.do(ctx, http.MethodPost, "/transactions/", req, &resp); err != nil {
		c.logger.Error().Err(err).Str("rate_id", rateID).Msg("shippo transaction failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrLabelPurchase, err)
	}

	if resp.Status != "SUCCESS" {
		c.logger.Error().
			Str("rate_id", rateID).
			Str("status", resp.Status).
			Msg("shippo transaction not successful")
		if msg := firstMessage(resp.Messages); msg != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrLabelPurchase, msg)
		}
		return nil, fmt.Errorf("%w: transaction status %s", domain.ErrLabelPurchase, resp.Status)
	}

	return toLabel(resp), nil
}

// --- Mapping helpers ---

func toAddressPayload(a domain.Address, fallbackEmail, fallbackPhone string) addressPayload {
	p := addressPayload{
		Name:    a.Name,
		Street1: a.Street1,
		Street2: a.Street2,
		City:    a.City,
		State:   a.State,
		Zip:     a.Zip,
		Country: a.Country,
		Email:   a.Email,
		Phone:   a.Phone,
	}
	if p.Email == "" {
		p.Email = fallbackEmail
	}
	if p.Phone == "" {
		p.Phone = fallbackPhone
	}
	return p
}

func toParcelPayload(item domain.ParsedItemInfo) parcelPayload {
	p := parcelPayload{
		Length:       defaultLength,
		Width:        defaultWidth,
		Height:       defaultHeight,
		DistanceUnit: defaultUnit,
		Weight:       formatFloat(item.Weight),
		MassUnit:     string(item.WeightUnit),
	}
	if d := item.Dimensions; d != nil {
		p.Length = formatFloat(d.Length)
		p.Width = formatFloat(d.Width)
		p.Height = formatFloat(d.Height)
		if d.Unit != "" {
			p.DistanceUnit = d.Unit
		}
	}
	return p
}

func toShipment(resp shipmentResponse) *domain.Shipment {
	offers := make([]domain.RateOffer, 0, len(resp.Rates))
	for _, r := range resp.Rates {
		offers = append(offers, domain.RateOffer{
			ID:            r.ObjectID,
			Provider:      r.Provider,
			ServiceName:   r.ServiceLevel.Name,
			Amount:        r.Amount,
			Currency:      r.Currency,
			EstimatedDays: r.EstimatedDays,
			Available:     r.Available,
			Messages:      messageTexts(r.Messages),
		})
	}
	return &domain.Shipment{ID: resp.ObjectID, Offers: offers}
}

func toLabel(t transactionResponse) *domain.Label {
	label := &domain.Label{
		Carrier:        "Unknown",
		Service:        "Unknown Service",
		Cost:           t.Amount,
		TrackingNumber: t.TrackingNumber,
		LabelURL:       t.LabelURL,
	}
	if t.Rate != nil {
		if t.Rate.Provider != "" {
			label.Carrier = t.Rate.Provider
		}
		if t.Rate.ServiceLevel.Name != "" {
			label.Service = t.Rate.ServiceLevel.Name
		}
		if t.Rate.Amount != "" {
			label.Cost = t.Rate.Amount
		}
	} else if t.ServiceLevel != nil && t.ServiceLevel.Name != "" {
		label.Service = t.ServiceLevel.Name
	}
	if label.Cost == "" {
		label.Cost = "0"
	}
	return label
}

func messageTexts(msgs []messagePayload) []string {
	if len(msgs) == 0 {
		return nil
	}
	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		texts = append(texts, m.Text)
	}
	return texts
}

func firstMessage(msgs []messagePayload) string {
	for _, m := range msgs {
		if m.Text != "" {
			return m.Text
		}
	}
	return ""
}

func parsePrice(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// do performs one JSON request against the Shippo API and decodes the
// response into out. Non-2xx statuses return an error carrying the response
// body so the caller can log the upstream cause.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "ShippoToken "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
