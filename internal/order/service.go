package order

import (
	"context"
	"fmt"

	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
)

// Service reads the order history from the shop API.
type Service struct {
	API       shopapi.API
	Decorator Decorator
}

// List returns the decorated history, optionally filtered by display status.
// An empty or "all" filter keeps every order.
func (s *Service) List(ctx context.Context, status string) ([]Summary, error) {
	if status != "" && status != "all" && !validStatus(status) {
		return nil, common.NewValidationError("status", "Unknown order status")
	}
	orders, err := s.API.Orders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	all := s.Decorator.Summaries(orders)
	if status == "" || status == "all" {
		return all, nil
	}
	filtered := all[:0:0]
	for _, o := range all {
		if o.Status == status {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

// Get returns the details of one order.
func (s *Service) Get(ctx context.Context, id shopapi.ID) (Details, error) {
	orders, err := s.API.Orders(ctx)
	if err != nil {
		return Details{}, fmt.Errorf("get order: %w", err)
	}
	for i, o := range orders {
		if o.ID == id {
			return s.Decorator.Details(i, o), nil
		}
	}
	return Details{}, &common.NotFoundError{Resource: "order", ID: id.String()}
}

func validStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}
