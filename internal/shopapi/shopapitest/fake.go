// Package shopapitest provides an in-memory shop API for tests.
package shopapitest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
)

// Call records one invocation of a mutating endpoint.
type Call struct {
	Method    string
	ProductID shopapi.ID
	OptionID  shopapi.ID
	Quantity  int
}

// Fake is a concurrency-safe shop API holding a cart, a product catalog, a
// delivery catalog and placed orders. Summary totals follow the shop's rule:
// products plus shipping, with 10% tax.
type Fake struct {
	mu       sync.Mutex
	products []shopapi.Product
	options  []shopapi.DeliveryOption
	cart     []shopapi.CartLine
	orders   []shopapi.Order
	calls    []Call
	reads    map[string]int

	// Err, when set, is returned by the named operation ("cart.update_delivery_option", ...).
	Err map[string]error
	// BeforeMutation runs before a mutation is applied, outside the lock.
	BeforeMutation func(ctx context.Context, call Call) error
	// BeforeRead runs before a read ("cart.get", ...), outside the lock.
	BeforeRead func(op string)
	// Now stamps placed orders.
	Now func() time.Time
}

var _ shopapi.API = (*Fake)(nil)

// New returns a fake seeded with the given catalogs.
func New(products []shopapi.Product, options []shopapi.DeliveryOption) *Fake {
	return &Fake{products: products, options: options, reads: make(map[string]int), Err: make(map[string]error), Now: time.Now}
}

// SetCart replaces the cart lines.
func (f *Fake) SetCart(lines ...shopapi.CartLine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cart = append([]shopapi.CartLine(nil), lines...)
	for i := range f.cart {
		f.cart[i].Product = f.productLocked(f.cart[i].ProductID)
	}
}

// SetOrders replaces the order history.
func (f *Fake) SetOrders(orders ...shopapi.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append([]shopapi.Order(nil), orders...)
}

// Calls returns the recorded mutations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Reads returns how many times a read operation was served.
func (f *Fake) Reads(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[op]
}

// SetErr injects an error for op; nil clears it.
func (f *Fake) SetErr(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.Err, op)
		return
	}
	f.Err[op] = err
}

func (f *Fake) read(op string) error {
	if f.BeforeRead != nil {
		f.BeforeRead(op)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[op]++
	return f.Err[op]
}

func (f *Fake) Products(ctx context.Context) ([]shopapi.Product, error) {
	if err := f.read("products.list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]shopapi.Product(nil), f.products...), nil
}

func (f *Fake) DeliveryOptions(ctx context.Context) ([]shopapi.DeliveryOption, error) {
	if err := f.read("delivery_options.list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]shopapi.DeliveryOption(nil), f.options...), nil
}

func (f *Fake) PaymentSummary(ctx context.Context) (shopapi.PaymentSummary, error) {
	if err := f.read("payment_summary.get"); err != nil {
		return shopapi.PaymentSummary{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out shopapi.PaymentSummary
	for _, line := range f.cart {
		out.TotalItems += line.Quantity
		if line.Product != nil {
			out.ProductsTotalCents += line.Product.PriceCents * int64(line.Quantity)
		}
		for _, opt := range f.options {
			if opt.ID == line.DeliveryOptionID {
				out.ShippingCostCents += opt.PriceCents
			}
		}
	}
	out.TotalCostBeforeTaxCents = out.ProductsTotalCents + out.ShippingCostCents
	out.TaxCents = out.TotalCostBeforeTaxCents / 10
	out.TotalCostCents = out.TotalCostBeforeTaxCents + out.TaxCents
	return out, nil
}

func (f *Fake) Orders(ctx context.Context) ([]shopapi.Order, error) {
	if err := f.read("orders.list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]shopapi.Order(nil), f.orders...), nil
}

func (f *Fake) Cart(ctx context.Context) ([]shopapi.CartLine, error) {
	if err := f.read("cart.get"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]shopapi.CartLine(nil), f.cart...), nil
}

func (f *Fake) AddCartItem(ctx context.Context, productID shopapi.ID, quantity int) error {
	return f.mutate(ctx, "cart.add", Call{Method: "POST", ProductID: productID, Quantity: quantity}, func() error {
		product := f.productLocked(productID)
		if product == nil {
			return &common.NotFoundError{Resource: "product", ID: productID.String()}
		}
		for i := range f.cart {
			if f.cart[i].ProductID == productID {
				f.cart[i].Quantity += quantity
				return nil
			}
		}
		f.cart = append(f.cart, shopapi.CartLine{ProductID: productID, Quantity: quantity, DeliveryOptionID: "1", Product: product})
		return nil
	})
}

func (f *Fake) UpdateQuantity(ctx context.Context, productID shopapi.ID, quantity int) error {
	return f.mutate(ctx, "cart.update_quantity", Call{Method: "PUT", ProductID: productID, Quantity: quantity}, func() error {
		line := f.lineLocked(productID)
		if line == nil {
			return &common.NotFoundError{Resource: "cart item", ID: productID.String()}
		}
		line.Quantity = quantity
		return nil
	})
}

func (f *Fake) UpdateDeliveryOption(ctx context.Context, productID, optionID shopapi.ID) error {
	return f.mutate(ctx, "cart.update_delivery_option", Call{Method: "PUT", ProductID: productID, OptionID: optionID}, func() error {
		line := f.lineLocked(productID)
		if line == nil {
			return &common.NotFoundError{Resource: "cart item", ID: productID.String()}
		}
		line.DeliveryOptionID = optionID
		return nil
	})
}

func (f *Fake) DeleteCartItem(ctx context.Context, productID shopapi.ID) error {
	return f.mutate(ctx, "cart.delete", Call{Method: "DELETE", ProductID: productID}, func() error {
		for i := range f.cart {
			if f.cart[i].ProductID == productID {
				f.cart = append(f.cart[:i], f.cart[i+1:]...)
				return nil
			}
		}
		return &common.NotFoundError{Resource: "cart item", ID: productID.String()}
	})
}

func (f *Fake) PlaceOrder(ctx context.Context) (shopapi.Order, error) {
	var order shopapi.Order
	err := f.mutate(ctx, "orders.create", Call{Method: "POST"}, func() error {
		now := f.Now()
		order = shopapi.Order{ID: shopapi.ID(fmt.Sprintf("order-%d", len(f.orders)+1)), OrderTimeMs: now.UnixMilli()}
		for _, line := range f.cart {
			eta := now
			for _, opt := range f.options {
				if opt.ID == line.DeliveryOptionID {
					eta = now.AddDate(0, 0, opt.DeliveryDays)
				}
			}
			if line.Product != nil {
				order.TotalCostCents += line.Product.PriceCents * int64(line.Quantity)
			}
			order.Products = append(order.Products, shopapi.OrderProduct{
				ProductID:               line.ProductID,
				Quantity:                line.Quantity,
				EstimatedDeliveryTimeMs: eta.UnixMilli(),
				Product:                 line.Product,
			})
		}
		f.orders = append([]shopapi.Order{order}, f.orders...)
		f.cart = nil
		return nil
	})
	return order, err
}

func (f *Fake) mutate(ctx context.Context, op string, call Call, apply func() error) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	hook := f.BeforeMutation
	injected := f.Err[op]
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, call); err != nil {
			return err
		}
	}
	if injected != nil {
		return injected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return apply()
}

func (f *Fake) productLocked(id shopapi.ID) *shopapi.Product {
	for i := range f.products {
		if f.products[i].ID == id {
			p := f.products[i]
			return &p
		}
	}
	return nil
}

func (f *Fake) lineLocked(id shopapi.ID) *shopapi.CartLine {
	for i := range f.cart {
		if f.cart[i].ProductID == id {
			return &f.cart[i]
		}
	}
	return nil
}
