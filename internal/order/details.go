package order

import (
	"net/url"
	"time"

	"github.com/noah-isme/storefront-toko/internal/shopapi"
)

// Step is one entry of the order timeline.
type Step struct {
	Label     string `json:"label"`
	Date      string `json:"date,omitempty"`
	Completed bool   `json:"completed"`
	Current   bool   `json:"current"`
}

// Line is one ordered product.
type Line struct {
	ProductID  shopapi.ID `json:"productId"`
	Name       string     `json:"name"`
	Image      string     `json:"image"`
	Price      string     `json:"price"`
	Quantity   int        `json:"quantity"`
	DeliveryBy string     `json:"deliveryBy"`
	TrackURL   string     `json:"trackUrl"`
}

// Details is the order details page model.
type Details struct {
	Summary
	Steps []Step `json:"steps"`
	Lines []Line `json:"lines"`
}

var timeline = []string{"Order Placed", "Processing", "Shipped", "Out for Delivery", "Delivered"}

// currentStep maps a display status to its 1-based timeline position.
// Cancelled orders stop at the first step.
func currentStep(status string) int {
	switch status {
	case StatusProcessing:
		return 2
	case StatusShipped:
		return 3
	case StatusDelivered:
		return 5
	default:
		return 1
	}
}

// Steps builds the timeline. Step n is dated n-1 days after the order.
func (d Decorator) Steps(o shopapi.Order, status string) []Step {
	current := currentStep(status)
	steps := make([]Step, 0, len(timeline))
	for i, label := range timeline {
		n := i + 1
		step := Step{Label: label, Completed: n <= current, Current: n == current}
		if step.Completed {
			step.Date = o.OrderTime().Add(time.Duration(i) * 24 * time.Hour).In(d.location()).Format("Jan 2, 3:04 PM")
		}
		steps = append(steps, step)
	}
	return steps
}

// Details decorates the order at list position i with its timeline and lines.
func (d Decorator) Details(i int, o shopapi.Order) Details {
	s := d.Summary(i, o)
	out := Details{Summary: s, Steps: d.Steps(o, s.Status)}
	for _, p := range o.Products {
		line := Line{
			ProductID:  p.ID(),
			Quantity:   p.Quantity,
			DeliveryBy: p.EstimatedDelivery().In(d.location()).Format("January 2, 2006"),
			TrackURL:   TrackURL(o.ID, p.ID()),
		}
		if p.Product != nil {
			line.Name = p.Product.Name
			line.Image = p.Product.Image
			line.Price = d.Money.Format(p.Product.PriceCents)
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}

// TrackURL links an order line to the tracking page.
func TrackURL(orderID, productID shopapi.ID) string {
	q := url.Values{"orderId": {orderID.String()}, "productId": {productID.String()}}
	return "/tracking?" + q.Encode()
}
