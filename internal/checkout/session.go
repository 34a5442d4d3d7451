package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/obs"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
)

const (
	MinQuantity = 1
	MaxQuantity = 10
)

// Session owns the checkout state of one browser session. Mutations set the
// local state first, persist through the shop API outside the lock, then
// apply the reloaded cart and payment summary only when no newer mutation
// for the same product was issued in the meantime.
type Session struct {
	API    shopapi.API
	Logger zerolog.Logger

	mu            sync.Mutex
	state         State
	optionsLoaded bool
	// latest mutation token per product
	tokens map[shopapi.ID]uint64
	// reload generations; a reload older than the last applied one is dropped
	reloadIssued uint64
	lastApplied  uint64
}

// NewSession returns an empty checkout session backed by api.
func NewSession(api shopapi.API, logger zerolog.Logger) *Session {
	return &Session{API: api, Logger: logger, tokens: make(map[shopapi.ID]uint64)}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// ObserveCart feeds a freshly loaded cart into the session.
func (s *Session) ObserveCart(lines []shopapi.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ObserveCart(lines)
}

// Load fetches the delivery catalog once per session, then the cart and the
// payment summary.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	needOptions := !s.optionsLoaded
	s.mu.Unlock()

	if needOptions {
		options, err := s.API.DeliveryOptions(ctx)
		if err != nil {
			return fmt.Errorf("load delivery options: %w", err)
		}
		s.mu.Lock()
		s.state.Options = options
		s.optionsLoaded = true
		s.mu.Unlock()
	}
	_, err := s.reload(ctx, "", 0)
	return err
}

// Refresh reloads the cart and payment summary without touching the catalog.
func (s *Session) Refresh(ctx context.Context) error {
	_, err := s.reload(ctx, "", 0)
	return err
}

// CartQuantity returns the header cart quantity, fetching the cart the first
// time it is needed. Failures are logged and shown as zero.
func (s *Session) CartQuantity(ctx context.Context) int {
	s.mu.Lock()
	loaded := s.state.Cart != nil
	s.mu.Unlock()
	if !loaded {
		if err := s.Refresh(ctx); err != nil {
			s.logger(ctx).Warn().Err(err).Msg("load cart quantity")
			return 0
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ItemCount()
}

// OnSelectDeliveryOption records the choice immediately and persists it. A
// persistence failure keeps the local choice and is returned as a
// NetworkError.
func (s *Session) OnSelectDeliveryOption(ctx context.Context, productID, optionID shopapi.ID) error {
	s.mu.Lock()
	if s.optionsLoaded {
		if _, ok := s.state.Option(optionID); !ok {
			s.mu.Unlock()
			return common.NewValidationError("deliveryOptionId", "Select a valid delivery option")
		}
	}
	s.state.Select(productID, optionID)
	token := s.nextTokenLocked(productID)
	s.mu.Unlock()

	log := s.logger(ctx).With().Str("product_id", productID.String()).Str("delivery_option_id", optionID.String()).Logger()
	if err := s.API.UpdateDeliveryOption(ctx, productID, optionID); err != nil {
		if !s.isLatest(productID, token) {
			obs.CountSelection("superseded")
			obs.CountStaleResponse("delivery_option")
			log.Warn().Err(err).Msg("superseded delivery option update failed")
			return nil
		}
		obs.CountSelection("failed")
		log.Error().Err(err).Msg("persist delivery option")
		return asNetworkError("persist delivery option", err)
	}
	result, err := s.reload(ctx, productID, token)
	if err != nil {
		obs.CountSelection("failed")
		log.Error().Err(err).Msg("reload after delivery option")
		return err
	}
	switch result {
	case reloadSuperseded:
		obs.CountSelection("superseded")
		obs.CountStaleResponse("delivery_option")
	case reloadOutdated:
		// a later reload already carries this choice
		obs.CountSelection("persisted")
		obs.CountStaleResponse("reload")
	default:
		obs.CountSelection("persisted")
	}
	return nil
}

// UpdateQuantity changes the quantity of a cart line.
func (s *Session) UpdateQuantity(ctx context.Context, productID shopapi.ID, quantity int) error {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return common.NewValidationError("quantity", fmt.Sprintf("Quantity must be between %d and %d", MinQuantity, MaxQuantity))
	}
	s.mu.Lock()
	if _, ok := s.state.Line(productID); !ok && len(s.state.Cart) > 0 {
		s.mu.Unlock()
		return &common.NotFoundError{Resource: "cart item", ID: productID.String()}
	}
	token := s.nextTokenLocked(productID)
	s.mu.Unlock()

	if err := s.API.UpdateQuantity(ctx, productID, quantity); err != nil {
		if !s.isLatest(productID, token) {
			obs.CountStaleResponse("quantity")
			return nil
		}
		s.logger(ctx).Error().Err(err).Str("product_id", productID.String()).Int("quantity", quantity).Msg("update quantity")
		return asNetworkError("update quantity", err)
	}
	result, err := s.reload(ctx, productID, token)
	if err != nil {
		return err
	}
	countDropped(result, "quantity")
	return nil
}

// DeleteLine removes a product from the cart and forgets its selection.
func (s *Session) DeleteLine(ctx context.Context, productID shopapi.ID) error {
	s.mu.Lock()
	token := s.nextTokenLocked(productID)
	s.mu.Unlock()

	if err := s.API.DeleteCartItem(ctx, productID); err != nil {
		var nf *common.NotFoundError
		if !errors.As(err, &nf) {
			s.logger(ctx).Error().Err(err).Str("product_id", productID.String()).Msg("delete cart item")
			return asNetworkError("delete cart item", err)
		}
	}
	s.mu.Lock()
	if s.tokens[productID] == token {
		delete(s.state.Selection, productID)
	}
	s.mu.Unlock()

	result, err := s.reload(ctx, productID, token)
	if err != nil {
		return err
	}
	countDropped(result, "delete")
	return nil
}

// AddToCart adds quantity units of a product and refreshes the cart.
func (s *Session) AddToCart(ctx context.Context, productID shopapi.ID, quantity int) error {
	if productID.IsZero() {
		return common.NewValidationError("productId", "Choose a product")
	}
	if quantity < MinQuantity || quantity > MaxQuantity {
		return common.NewValidationError("quantity", fmt.Sprintf("Quantity must be between %d and %d", MinQuantity, MaxQuantity))
	}
	s.mu.Lock()
	token := s.nextTokenLocked(productID)
	s.mu.Unlock()

	if err := s.API.AddCartItem(ctx, productID, quantity); err != nil {
		s.logger(ctx).Error().Err(err).Str("product_id", productID.String()).Msg("add to cart")
		return asNetworkError("add to cart", err)
	}
	_, err := s.reload(ctx, productID, token)
	return err
}

// PlaceOrder validates the checkout form and places an order from the
// current cart.
func (s *Session) PlaceOrder(ctx context.Context, form OrderForm) (shopapi.Order, error) {
	form.Normalize()
	err := common.ValidateStruct(form)
	s.mu.Lock()
	empty := len(s.state.Cart) == 0
	s.mu.Unlock()
	if empty {
		cartErr := common.NewValidationError("cart", "Your cart is empty")
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			verr.Fields = append(verr.Fields, cartErr.Fields...)
		} else {
			err = cartErr
		}
	}
	if err != nil {
		obs.CountValidationFailure()
		return shopapi.Order{}, err
	}
	order, err := s.API.PlaceOrder(ctx)
	if err != nil {
		s.logger(ctx).Error().Err(err).Msg("place order")
		return shopapi.Order{}, asNetworkError("place order", err)
	}
	s.logger(ctx).Info().Str("order_id", order.ID.String()).Msg("order placed")
	return order, nil
}

func (s *Session) nextTokenLocked(productID shopapi.ID) uint64 {
	if s.tokens == nil {
		s.tokens = make(map[shopapi.ID]uint64)
	}
	s.tokens[productID]++
	return s.tokens[productID]
}

func (s *Session) isLatest(productID shopapi.ID, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[productID] == token
}

type reloadResult int

const (
	reloadApplied reloadResult = iota
	// a newer mutation for the same product was issued
	reloadSuperseded
	// a reload issued later, for any product, was already applied
	reloadOutdated
)

func countDropped(result reloadResult, op string) {
	switch result {
	case reloadSuperseded:
		obs.CountStaleResponse(op)
	case reloadOutdated:
		obs.CountStaleResponse("reload")
	}
}

// reload fetches the cart and payment summary and swaps them in. When
// productID is set the result is applied only if token is still the latest
// for that product. Any reload is dropped if a later one was already applied.
func (s *Session) reload(ctx context.Context, productID shopapi.ID, token uint64) (reloadResult, error) {
	s.mu.Lock()
	s.reloadIssued++
	generation := s.reloadIssued
	s.mu.Unlock()

	cart, err := s.API.Cart(ctx)
	if err != nil {
		return 0, asNetworkError("reload cart", err)
	}
	summary, err := s.API.PaymentSummary(ctx)
	if err != nil {
		return 0, asNetworkError("reload payment summary", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !productID.IsZero() && s.tokens[productID] != token {
		return reloadSuperseded, nil
	}
	if generation < s.lastApplied {
		return reloadOutdated, nil
	}
	s.lastApplied = generation
	s.state.ObserveCart(cart)
	s.state.Summary = &summary
	return reloadApplied, nil
}

func (s *Session) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.Logger
}

func asNetworkError(op string, err error) error {
	var netErr *common.NetworkError
	var nf *common.NotFoundError
	var verr *common.ValidationError
	if errors.As(err, &netErr) || errors.As(err, &nf) || errors.As(err, &verr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &common.NetworkError{Op: op, Err: err}
}
