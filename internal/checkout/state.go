package checkout

import (
	"github.com/noah-isme/storefront-toko/internal/shopapi"
)

// State is the checkout data a view is derived from: the current cart, the
// delivery catalog, the per-product selection overrides and the last payment
// summary received from the shop API.
type State struct {
	Cart      []shopapi.CartLine
	Options   []shopapi.DeliveryOption
	Selection map[shopapi.ID]shopapi.ID
	Summary   *shopapi.PaymentSummary

	// set by the first non-empty cart or the first explicit choice
	seeded bool
}

// ObserveCart replaces the cart and, the first time it is non-empty, seeds
// the selection map from each line's stored delivery option. Lines without a
// stored option are not seeded, and a later cart never seeds them.
func (s *State) ObserveCart(lines []shopapi.CartLine) {
	s.Cart = lines
	if s.seeded || len(lines) == 0 {
		return
	}
	s.seeded = true
	if s.Selection == nil {
		s.Selection = make(map[shopapi.ID]shopapi.ID, len(lines))
	}
	for _, line := range lines {
		if line.ProductID.IsZero() || line.DeliveryOptionID.IsZero() {
			continue
		}
		s.Selection[line.ProductID] = line.DeliveryOptionID
	}
}

// Select records an explicit user choice for a product.
func (s *State) Select(productID, optionID shopapi.ID) {
	if s.Selection == nil {
		s.Selection = make(map[shopapi.ID]shopapi.ID)
	}
	s.seeded = true
	s.Selection[productID] = optionID
}

// Line returns the cart line for a product.
func (s *State) Line(productID shopapi.ID) (shopapi.CartLine, bool) {
	for _, line := range s.Cart {
		if line.ProductID == productID {
			return line, true
		}
	}
	return shopapi.CartLine{}, false
}

// EffectiveOptionID is the selection override, else the cart line's stored
// option, else absent.
func (s *State) EffectiveOptionID(productID shopapi.ID) (shopapi.ID, bool) {
	if id, ok := s.Selection[productID]; ok && !id.IsZero() {
		return id, true
	}
	if line, ok := s.Line(productID); ok && !line.DeliveryOptionID.IsZero() {
		return line.DeliveryOptionID, true
	}
	return "", false
}

// Option looks up a delivery option in the catalog.
func (s *State) Option(id shopapi.ID) (shopapi.DeliveryOption, bool) {
	if id.IsZero() {
		return shopapi.DeliveryOption{}, false
	}
	for _, opt := range s.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return shopapi.DeliveryOption{}, false
}

// SelectedOption resolves the effective option of a product against the catalog.
func (s *State) SelectedOption(productID shopapi.ID) (shopapi.DeliveryOption, bool) {
	id, ok := s.EffectiveOptionID(productID)
	if !ok {
		return shopapi.DeliveryOption{}, false
	}
	return s.Option(id)
}

// ItemCount is the total quantity across cart lines.
func (s *State) ItemCount() int {
	total := 0
	for _, line := range s.Cart {
		total += line.Quantity
	}
	return total
}

// Clone returns a deep copy safe to read without the session lock.
func (s *State) Clone() State {
	out := State{
		Cart:    append([]shopapi.CartLine(nil), s.Cart...),
		Options: append([]shopapi.DeliveryOption(nil), s.Options...),
		seeded:  s.seeded,
	}
	if s.Selection != nil {
		out.Selection = make(map[shopapi.ID]shopapi.ID, len(s.Selection))
		for k, v := range s.Selection {
			out.Selection[k] = v
		}
	}
	if s.Summary != nil {
		summary := *s.Summary
		out.Summary = &summary
	}
	return out
}
