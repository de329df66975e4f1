package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parcelgate/shipping-agent/internal/api/middleware"
	"github.com/parcelgate/shipping-agent/internal/core/domain"
	"github.com/parcelgate/shipping-agent/internal/core/ports"
)

const defaultHistoryLimit = 50

// ShippingHandler exposes the quote and label flows over HTTP. Payment
// gating happens in middleware; by the time a handler runs the request has
// already paid.
type ShippingHandler struct {
	service ports.ShippingService
}

func NewShippingHandler(service ports.ShippingService) *ShippingHandler {
	return &ShippingHandler{service: service}
}

// Quote handles POST /api/shipping/quote and /api/web/shipping/quote:
// extraction, shipment creation, ordered quotes, and a recommendation.
func (h *ShippingHandler) Quote(c echo.Context) error {
	var req quoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Quote(c.Request().Context(), ports.QuoteInput{
		Description: req.ItemDescription,
		From:        toDomainAddress(*req.FromAddress),
		To:          toDomainAddress(*req.ToAddress),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, quotesResponse{
		ParsedInfo:  toParsedInfoResponse(result.ParsedInfo),
		Quotes:      toQuoteResponses(result.Quotes),
		Recommended: toQuoteResponse(result.Recommended),
		ShipmentID:  result.ShipmentID,
	})
}

// PurchaseLabel handles POST /api/shipping/label: the full flow ending in a
// purchased label. One shipment serves quoting, recommendation and purchase.
func (h *ShippingHandler) PurchaseLabel(c echo.Context) error {
	var req labelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.PurchaseLabel(c.Request().Context(), ports.PurchaseInput{
		Description:    req.ItemDescription.Description,
		Item:           toDomainItemInfo(req.ParsedInfo),
		From:           toDomainAddress(*req.FromAddress),
		To:             toDomainAddress(*req.ToAddress),
		SelectedRateID: req.SelectedRate,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, purchaseResponse{
		Success:     true,
		Label:       toLabelResponse(result.Label),
		Quotes:      toQuoteResponses(result.Quotes),
		Recommended: toQuoteResponse(result.Recommended),
		ParsedInfo:  toParsedInfoResponse(result.ParsedInfo),
	})
}

// WebPurchaseLabel handles POST /api/web/shipping/label: a direct purchase
// against a rate id from an earlier quote call. The payment tx hash set by
// the gate is stamped onto the label.
func (h *ShippingHandler) WebPurchaseLabel(c echo.Context) error {
	var req webLabelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	paymentTx, _ := c.Get(middleware.PaymentTxKey).(string)

	label, err := h.service.PurchaseLabelByRate(c.Request().Context(), req.RateID, paymentTx)
	if err != nil {
		return err
	}

	resp := toLabelResponse(*label)
	// Browser-supplied display fields win over carrier defaults.
	if req.Carrier != "" {
		resp.Carrier = req.Carrier
	}
	if req.Service != "" {
		resp.Service = req.Service
	}
	if req.Price != "" {
		resp.Cost = req.Price
	}

	return c.JSON(http.StatusOK, webPurchaseResponse{Success: true, Label: resp})
}

// ListLabels handles GET /api/shipping/labels — purchase history, newest
// first.
func (h *ShippingHandler) ListLabels(c echo.Context) error {
	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	labels, err := h.service.ListLabels(c.Request().Context(), limit)
	if err != nil {
		return err
	}

	items := make([]labelHistoryItem, 0, len(labels))
	for _, l := range labels {
		items = append(items, labelHistoryItem{
			ID:             l.ID,
			Carrier:        l.Carrier,
			Service:        l.Service,
			Cost:           l.Cost,
			TrackingNumber: l.TrackingNumber,
			LabelURL:       l.LabelURL,
			PaymentTxHash:  l.PaymentTxHash,
			PurchasedAt:    l.PurchasedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, labelHistoryResponse{Labels: items, Count: len(items)})
}

// --- Mapping helpers ---

func toDomainAddress(a addressRequest) domain.Address {
	return domain.Address{
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
}

func toDomainItemInfo(p *parsedItemInfoRequest) *domain.ParsedItemInfo {
	if p == nil {
		return nil
	}
	info := &domain.ParsedItemInfo{
		Weight:     p.Weight,
		WeightUnit: domain.WeightUnit(p.WeightUnit),
		Value:      p.Value,
		Category:   p.Category,
		Fragile:    p.Fragile,
		Source:     domain.SourceParsed,
	}
	if d := p.Dimensions; d != nil {
		info.Dimensions = &domain.Dimensions{Length: d.Length, Width: d.Width, Height: d.Height, Unit: d.Unit}
	}
	return info
}

func toParsedInfoResponse(info domain.ParsedItemInfo) parsedInfoResponse {
	resp := parsedInfoResponse{
		Weight:     info.Weight,
		WeightUnit: string(info.WeightUnit),
		Value:      info.Value,
		Category:   info.Category,
		Fragile:    info.Fragile,
		Source:     string(info.Source),
	}
	if d := info.Dimensions; d != nil {
		resp.Dimensions = &dimensionsResponse{Length: d.Length, Width: d.Width, Height: d.Height, Unit: d.Unit}
	}
	return resp
}

func toQuoteResponse(q *domain.ShippingQuote) *quoteResponse {
	if q == nil {
		return nil
	}
	resp := quoteResponseFrom(*q)
	return &resp
}

func toQuoteResponses(quotes []domain.ShippingQuote) []quoteResponse {
	out := make([]quoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, quoteResponseFrom(q))
	}
	return out
}

func quoteResponseFrom(q domain.ShippingQuote) quoteResponse {
	return quoteResponse{
		Carrier:       q.Carrier,
		ServiceName:   q.ServiceName,
		Price:         q.Price,
		Currency:      q.Currency,
		EstimatedDays: q.EstimatedDays,
		RateID:        q.RateID,
	}
}

func toLabelResponse(l domain.Label) labelResponse {
	return labelResponse{
		LabelURL:       l.LabelURL,
		TrackingNumber: l.TrackingNumber,
		Carrier:        l.Carrier,
		Service:        l.Service,
		Cost:           l.Cost,
		PaymentTxHash:  l.PaymentTxHash,
	}
}
