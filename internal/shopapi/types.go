package shopapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is the canonical identifier for products and delivery options. The shop
// API emits ids as JSON strings in some payloads and numbers in others; both
// decode to the same ID so comparisons are plain equality.
type ID string

// ParseID canonicalises a raw identifier taken from a URL or form field.
func ParseID(raw string) ID {
	return ID(strings.TrimSpace(raw))
}

// IsZero reports whether the id is absent.
func (id ID) IsZero() bool { return id == "" }

func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts a string, a number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ParseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("shopapi: id must be a string or number: %w", err)
	}
	canonical, err := canonicalNumber(n)
	if err != nil {
		return fmt.Errorf("shopapi: id must be a string or number: %w", err)
	}
	*id = ID(canonical)
	return nil
}

// canonicalNumber renders a numeric id the way it would be printed as text,
// so 2, 2.0 and 2e0 all become "2". Plain integers are kept verbatim to avoid
// float rounding on large ids.
func canonicalNumber(n json.Number) (string, error) {
	raw := n.String()
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil && raw != "-0" {
		return raw, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", err
	}
	if v == 0 {
		return "0", nil
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

// MarshalJSON always emits a string, or null when absent.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(string(id))
}

// Rating is the product review aggregate.
type Rating struct {
	Stars float64 `json:"stars"`
	Count int     `json:"count"`
}

// Product is an entry of the product catalog.
type Product struct {
	ID         ID       `json:"id"`
	Name       string   `json:"name"`
	Image      string   `json:"image"`
	PriceCents int64    `json:"priceCents"`
	Rating     Rating   `json:"rating"`
	Keywords   []string `json:"keywords,omitempty"`
}

// CartLine is one product entry of the current cart.
type CartLine struct {
	ProductID        ID       `json:"productId"`
	Quantity         int      `json:"quantity"`
	DeliveryOptionID ID       `json:"deliveryOptionId"`
	Product          *Product `json:"product,omitempty"`
}

// UnmarshalJSON also accepts the legacy deliveryOptionsId key.
func (l *CartLine) UnmarshalJSON(data []byte) error {
	type plain CartLine
	var raw struct {
		plain
		LegacyDeliveryOptionID ID `json:"deliveryOptionsId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = CartLine(raw.plain)
	if l.DeliveryOptionID.IsZero() {
		l.DeliveryOptionID = raw.LegacyDeliveryOptionID
	}
	return nil
}

// DeliveryOption is a shipping tier with its price and estimated arrival.
type DeliveryOption struct {
	ID                      ID    `json:"id"`
	DeliveryDays            int   `json:"deliveryDays,omitempty"`
	PriceCents              int64 `json:"priceCents"`
	EstimatedDeliveryTimeMs int64 `json:"estimatedDeliveryTimeMs"`
}

// EstimatedDelivery returns the estimated arrival as a time value.
func (o DeliveryOption) EstimatedDelivery() time.Time {
	return time.UnixMilli(o.EstimatedDeliveryTimeMs)
}

// PaymentSummary is the server-computed cost breakdown of the current cart.
type PaymentSummary struct {
	TotalItems              int   `json:"totalItems"`
	ProductsTotalCents      int64 `json:"productCostCents"`
	ShippingCostCents       int64 `json:"shippingCostCents"`
	TotalCostBeforeTaxCents int64 `json:"totalCostBeforeTaxCents"`
	TaxCents                int64 `json:"taxCents"`
	TotalCostCents          int64 `json:"totalCostCents"`
}

// UnmarshalJSON accepts both productCostCents and productsTotalCents.
func (p *PaymentSummary) UnmarshalJSON(data []byte) error {
	type plain PaymentSummary
	var raw struct {
		plain
		ProductsTotalCents *int64 `json:"productsTotalCents"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = PaymentSummary(raw.plain)
	if raw.ProductsTotalCents != nil {
		p.ProductsTotalCents = *raw.ProductsTotalCents
	}
	return nil
}

// OrderProduct is one line of a placed order.
type OrderProduct struct {
	ProductID               ID       `json:"productId"`
	Quantity                int      `json:"quantity"`
	EstimatedDeliveryTimeMs int64    `json:"estimatedDeliveryTimeMs"`
	Product                 *Product `json:"product,omitempty"`
}

// ID returns the product id, preferring the expanded product when present.
func (p OrderProduct) ID() ID {
	if p.Product != nil && !p.Product.ID.IsZero() {
		return p.Product.ID
	}
	return p.ProductID
}

// EstimatedDelivery returns the estimated arrival as a time value.
func (p OrderProduct) EstimatedDelivery() time.Time {
	return time.UnixMilli(p.EstimatedDeliveryTimeMs)
}

// Order is a placed order as returned by the orders endpoint.
type Order struct {
	ID             ID             `json:"id"`
	OrderTimeMs    int64          `json:"orderTimeMs"`
	TotalCostCents int64          `json:"totalCostCents"`
	Products       []OrderProduct `json:"products"`
}

// OrderTime returns the order placement time.
func (o Order) OrderTime() time.Time {
	return time.UnixMilli(o.OrderTimeMs)
}

// Product looks up an order line by product id.
func (o Order) Product(id ID) (OrderProduct, bool) {
	for _, p := range o.Products {
		if p.ID() == id {
			return p, true
		}
	}
	return OrderProduct{}, false
}
