package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type addressRequest struct {
	Name    string `json:"name"    validate:"required"`
	Street1 string `json:"street1" validate:"required"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"    validate:"required"`
	State   string `json:"state"   validate:"required"`
	Zip     string `json:"zip"     validate:"required"`
	Country string `json:"country" validate:"required"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty"`
}

type dimensionsRequest struct {
	Length float64 `json:"length" validate:"required,gt=0"`
	Width  float64 `json:"width"  validate:"required,gt=0"`
	Height float64 `json:"height" validate:"required,gt=0"`
	Unit   string  `json:"unit"   validate:"required,oneof=in cm"`
}

// parsedItemInfoRequest lets a caller skip model extraction by supplying the
// attributes directly.
type parsedItemInfoRequest struct {
	Weight     float64            `json:"weight"     validate:"required,gt=0"`
	WeightUnit string             `json:"weightUnit" validate:"required,oneof=lb kg"`
	Dimensions *dimensionsRequest `json:"dimensions,omitempty"`
	Value      float64            `json:"value,omitempty"`
	Category   string             `json:"category,omitempty"`
	Fragile    bool               `json:"fragile,omitempty"`
}

type quoteRequest struct {
	ItemDescription string          `json:"itemDescription" validate:"required"`
	FromAddress     *addressRequest `json:"fromAddress"     validate:"required"`
	ToAddress       *addressRequest `json:"toAddress"       validate:"required"`
}

type itemDescriptionRequest struct {
	Description string `json:"description" validate:"required"`
}

type labelRequest struct {
	ItemDescription *itemDescriptionRequest `json:"itemDescription" validate:"required"`
	FromAddress     *addressRequest         `json:"fromAddress"     validate:"required"`
	ToAddress       *addressRequest         `json:"toAddress"       validate:"required"`
	ParsedInfo      *parsedItemInfoRequest  `json:"parsedInfo,omitempty"`
	SelectedRate    string                  `json:"selectedRate,omitempty"`
}

// webLabelRequest purchases directly by rate id; carrier/service/price echo
// what the browser already displayed and take precedence in the response.
type webLabelRequest struct {
	RateID  string `json:"rateId" validate:"required"`
	Carrier string `json:"carrier,omitempty"`
	Service string `json:"service,omitempty"`
	Price   string `json:"price,omitempty"`
}

// --- Response types ---
// Owned by the transport layer so the JSON contract is not coupled to
// internal service changes.

type dimensionsResponse struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

type parsedInfoResponse struct {
	Weight     float64             `json:"weight"`
	WeightUnit string              `json:"weightUnit"`
	Dimensions *dimensionsResponse `json:"dimensions,omitempty"`
	Value      float64             `json:"value,omitempty"`
	Category   string              `json:"category,omitempty"`
	Fragile    bool                `json:"fragile"`
	Source     string              `json:"source"`
}

type quoteResponse struct {
	Carrier       string `json:"carrier"`
	ServiceName   string `json:"serviceName"`
	Price         string `json:"price"`
	Currency      string `json:"currency"`
	EstimatedDays int    `json:"estimatedDays"`
	RateID        string `json:"rateId"`
}

type quotesResponse struct {
	ParsedInfo  parsedInfoResponse `json:"parsedInfo"`
	Quotes      []quoteResponse    `json:"quotes"`
	Recommended *quoteResponse     `json:"recommended,omitempty"`
	ShipmentID  string             `json:"shipmentId"`
}

type labelResponse struct {
	LabelURL       string `json:"labelUrl"`
	TrackingNumber string `json:"trackingNumber"`
	Carrier        string `json:"carrier"`
	Service        string `json:"service"`
	Cost           string `json:"cost"`
	PaymentTxHash  string `json:"paymentTxHash,omitempty"`
}

type purchaseResponse struct {
	Success     bool               `json:"success"`
	Label       labelResponse      `json:"label"`
	Quotes      []quoteResponse    `json:"quotes,omitempty"`
	Recommended *quoteResponse     `json:"recommended,omitempty"`
	ParsedInfo  parsedInfoResponse `json:"parsedInfo"`
}

type webPurchaseResponse struct {
	Success bool          `json:"success"`
	Label   labelResponse `json:"label"`
}

type labelHistoryItem struct {
	ID             string `json:"id"`
	Carrier        string `json:"carrier"`
	Service        string `json:"service"`
	Cost           string `json:"cost"`
	TrackingNumber string `json:"trackingNumber"`
	LabelURL       string `json:"labelUrl"`
	PaymentTxHash  string `json:"paymentTxHash,omitempty"`
	PurchasedAt    string `json:"purchasedAt"`
}

type labelHistoryResponse struct {
	Labels []labelHistoryItem `json:"labels"`
	Count  int                `json:"count"`
}
