package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
)

// EmptyText is shown when no order line matches the request.
const EmptyText = "No tracking information available."

// View is the tracking page model. Found is false for the empty state.
type View struct {
	Found        bool       `json:"found"`
	OrderID      shopapi.ID `json:"orderId,omitempty"`
	ProductID    shopapi.ID `json:"productId,omitempty"`
	ProductName  string     `json:"productName,omitempty"`
	Image        string     `json:"image,omitempty"`
	Quantity     int        `json:"quantity,omitempty"`
	ArrivingOn   string     `json:"arrivingOn,omitempty"`
	Status       Status     `json:"status"`
	Labels       []Label    `json:"labels,omitempty"`
	Progress     int        `json:"progress"`
	EmptyMessage string     `json:"emptyMessage,omitempty"`
}

// Service looks up order lines for tracking.
type Service struct {
	API      shopapi.API
	Location *time.Location
	Now      func() time.Time
}

// Lookup finds the product line of an order. A missing order or product is
// reported as a NotFoundError.
func (s *Service) Lookup(ctx context.Context, orderID, productID shopapi.ID) (shopapi.Order, shopapi.OrderProduct, error) {
	if orderID.IsZero() || productID.IsZero() {
		return shopapi.Order{}, shopapi.OrderProduct{}, &common.NotFoundError{Resource: "tracking information"}
	}
	orders, err := s.API.Orders(ctx)
	if err != nil {
		return shopapi.Order{}, shopapi.OrderProduct{}, fmt.Errorf("load orders: %w", err)
	}
	for _, order := range orders {
		if order.ID != orderID {
			continue
		}
		line, ok := order.Product(productID)
		if !ok {
			return shopapi.Order{}, shopapi.OrderProduct{}, &common.NotFoundError{Resource: "order product", ID: productID.String()}
		}
		return order, line, nil
	}
	return shopapi.Order{}, shopapi.OrderProduct{}, &common.NotFoundError{Resource: "order", ID: orderID.String()}
}

// Track builds the tracking view. Lookup misses produce the empty state with
// a nil error; upstream failures are returned.
func (s *Service) Track(ctx context.Context, orderID, productID shopapi.ID) (View, error) {
	order, line, err := s.Lookup(ctx, orderID, productID)
	if err != nil {
		var nf *common.NotFoundError
		if errors.As(err, &nf) {
			return View{EmptyMessage: EmptyText}, nil
		}
		return View{}, err
	}
	status := DeliveryStatus(order.OrderTime(), line.EstimatedDelivery(), s.now())
	v := View{
		Found:      true,
		OrderID:    order.ID,
		ProductID:  line.ID(),
		Quantity:   line.Quantity,
		ArrivingOn: line.EstimatedDelivery().In(s.location()).Format("Monday, January 2"),
		Status:     status,
		Labels:     status.Labels(),
		Progress:   status.ProgressPercent(),
	}
	if line.Product != nil {
		v.ProductName = line.Product.Name
		v.Image = line.Product.Image
	}
	return v, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.Local
}
