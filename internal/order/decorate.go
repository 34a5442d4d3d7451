// Package order builds the order history and order details views. The shop
// API has no order status, so display-only status and payment labels are
// assigned by list position.
package order

import (
	"strings"
	"time"

	"github.com/noah-isme/storefront-toko/internal/money"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
)

// Display statuses in the order they are assigned.
const (
	StatusDelivered  = "Delivered"
	StatusShipped    = "Shipped"
	StatusProcessing = "Processing"
	StatusCancelled  = "Cancelled"
)

var (
	// Statuses is the filter list of the order history.
	Statuses       = []string{StatusDelivered, StatusShipped, StatusProcessing, StatusCancelled}
	paymentMethods = []string{"Credit Card", "Debit Card", "UPI", "Net Banking"}
)

const previewCount = 3

// Preview is a product thumbnail of an order card.
type Preview struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Summary is one order card of the history.
type Summary struct {
	ID            shopapi.ID `json:"id"`
	ShortID       string     `json:"shortId"`
	Date          string     `json:"date"`
	Status        string     `json:"status"`
	StatusClass   string     `json:"statusClass"`
	ItemCount     int        `json:"itemCount"`
	Total         string     `json:"total"`
	PaymentMethod string     `json:"paymentMethod"`
	PaymentStatus string     `json:"paymentStatus"`
	Previews      []Preview  `json:"previews"`
	More          int        `json:"more"`
	CanReorder    bool       `json:"canReorder"`
	CanCancel     bool       `json:"canCancel"`
}

// Decorator formats orders for display.
type Decorator struct {
	Money    money.Formatter
	Location *time.Location
}

// StatusAt returns the display status of the order at list position i.
func StatusAt(i int) string {
	return Statuses[i%len(Statuses)]
}

// PaymentMethodAt returns the display payment method at list position i.
func PaymentMethodAt(i int) string {
	return paymentMethods[i%len(paymentMethods)]
}

// PaymentStatus is Refunded for cancelled orders and Paid otherwise.
func PaymentStatus(status string) string {
	if status == StatusCancelled {
		return "Refunded"
	}
	return "Paid"
}

// Summaries decorates every order by its list position.
func (d Decorator) Summaries(orders []shopapi.Order) []Summary {
	out := make([]Summary, 0, len(orders))
	for i, o := range orders {
		out = append(out, d.Summary(i, o))
	}
	return out
}

// Summary decorates the order at list position i.
func (d Decorator) Summary(i int, o shopapi.Order) Summary {
	status := StatusAt(i)
	s := Summary{
		ID:            o.ID,
		ShortID:       shortID(o.ID),
		Date:          o.OrderTime().In(d.location()).Format("Jan 2, 2006"),
		Status:        status,
		StatusClass:   strings.ToLower(status),
		ItemCount:     len(o.Products),
		Total:         d.Money.Format(o.TotalCostCents),
		PaymentMethod: PaymentMethodAt(i),
		PaymentStatus: PaymentStatus(status),
		CanReorder:    status == StatusDelivered,
		CanCancel:     status == StatusProcessing,
	}
	for j, p := range o.Products {
		if j == previewCount {
			s.More = len(o.Products) - previewCount
			break
		}
		if p.Product != nil {
			s.Previews = append(s.Previews, Preview{Name: p.Product.Name, Image: p.Product.Image})
		}
	}
	return s
}

func (d Decorator) location() *time.Location {
	if d.Location != nil {
		return d.Location
	}
	return time.Local
}

func shortID(id shopapi.ID) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
