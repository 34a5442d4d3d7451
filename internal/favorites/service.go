// Package favorites implements the wishlist: the first products of the
// catalog, minus the ones a session removed or moved to its cart.
package favorites

import (
	"context"
	"fmt"

	"github.com/noah-isme/storefront-toko/internal/catalog"
	"github.com/noah-isme/storefront-toko/internal/checkout"
	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
)

// DefaultSize is the number of catalog products on a fresh wishlist.
const DefaultSize = 6

type Service struct {
	Catalog *catalog.Service
	Store   Store
	Size    int
}

func (s *Service) size() int {
	if s.Size > 0 {
		return s.Size
	}
	return DefaultSize
}

// List returns the wishlist of a session.
func (s *Service) List(ctx context.Context, sessionID string) ([]catalog.ProductCard, error) {
	products, err := s.Catalog.Head(ctx, s.size())
	if err != nil {
		return nil, err
	}
	removed, err := s.Store.Removed(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}
	kept := products[:0:0]
	for _, p := range products {
		if !removed[p.ID] {
			kept = append(kept, p)
		}
	}
	return s.Catalog.Cards(kept), nil
}

// Check reports whether a product is on the session's wishlist.
func (s *Service) Check(ctx context.Context, sessionID string, productID shopapi.ID) (bool, error) {
	items, err := s.List(ctx, sessionID)
	if err != nil {
		return false, err
	}
	for _, item := range items {
		if item.ID == productID {
			return true, nil
		}
	}
	return false, nil
}

// Remove drops a product from the wishlist.
func (s *Service) Remove(ctx context.Context, sessionID string, productID shopapi.ID) error {
	ok, err := s.Check(ctx, sessionID, productID)
	if err != nil {
		return err
	}
	if !ok {
		return &common.NotFoundError{Resource: "wishlist item", ID: productID.String()}
	}
	if err := s.Store.Remove(ctx, sessionID, productID); err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	return nil
}

// MoveToCart adds one unit to the cart and then removes the product from the
// wishlist. The product stays on the wishlist when the cart call fails.
func (s *Service) MoveToCart(ctx context.Context, sessionID string, sess *checkout.Session, productID shopapi.ID) error {
	ok, err := s.Check(ctx, sessionID, productID)
	if err != nil {
		return err
	}
	if !ok {
		return &common.NotFoundError{Resource: "wishlist item", ID: productID.String()}
	}
	if err := sess.AddToCart(ctx, productID, 1); err != nil {
		return err
	}
	return s.Store.Remove(ctx, sessionID, productID)
}

// MoveAllToCart moves every wishlist item, stopping at the first failure.
func (s *Service) MoveAllToCart(ctx context.Context, sessionID string, sess *checkout.Session) (int, error) {
	items, err := s.List(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, item := range items {
		if err := sess.AddToCart(ctx, item.ID, 1); err != nil {
			return moved, err
		}
		if err := s.Store.Remove(ctx, sessionID, item.ID); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}
