package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/obs"
	"github.com/noah-isme/storefront-toko/internal/resilience"
)

// API is the subset of the shop REST contract used by the storefront.
type API interface {
	Products(ctx context.Context) ([]Product, error)
	DeliveryOptions(ctx context.Context) ([]DeliveryOption, error)
	PaymentSummary(ctx context.Context) (PaymentSummary, error)
	Orders(ctx context.Context) ([]Order, error)
	Cart(ctx context.Context) ([]CartLine, error)
	AddCartItem(ctx context.Context, productID ID, quantity int) error
	UpdateQuantity(ctx context.Context, productID ID, quantity int) error
	UpdateDeliveryOption(ctx context.Context, productID, optionID ID) error
	DeleteCartItem(ctx context.Context, productID ID) error
	PlaceOrder(ctx context.Context) (Order, error)
}

// Config controls the shop API client transport.
type Config struct {
	BaseURL             string
	Timeout             time.Duration
	MaxAttempts         int
	BaseBackoff         time.Duration
	Jitter              float64
	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenFor      time.Duration
	// Transport overrides the underlying round tripper, mainly for tests.
	Transport http.RoundTripper
	Logger    zerolog.Logger
}

// Client calls the shop REST API through a retrying, circuit-broken transport.
type Client struct {
	baseURL string
	http    resilience.HTTPClient
	logger  zerolog.Logger
}

var _ API = (*Client)(nil)

// NewClient builds a client for the shop API rooted at cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("shopapi: invalid base url %q", cfg.BaseURL)
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	minRequests := cfg.BreakerMinRequests
	if minRequests <= 0 {
		minRequests = 10
	}
	breaker := resilience.NewBreaker(minRequests, cfg.BreakerFailureRatio, cfg.BreakerOpenFor).
		WithTarget("shop_api").
		WithLogger(cfg.Logger)
	return &Client{
		baseURL: base,
		http: resilience.HTTPClient{
			Client:      &http.Client{Transport: otelhttp.NewTransport(transport)},
			Breaker:     breaker,
			BaseBackoff: cfg.BaseBackoff,
			MaxAttempts: cfg.MaxAttempts,
			Jitter:      cfg.Jitter,
			Timeout:     cfg.Timeout,
		},
		logger: cfg.Logger,
	}, nil
}

// Products returns the product catalog.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var out []Product
	err := c.do(ctx, call{op: "products.list", method: http.MethodGet, path: "/api/products", out: &out})
	return out, err
}

// DeliveryOptions returns the delivery catalog with estimated delivery times.
func (c *Client) DeliveryOptions(ctx context.Context) ([]DeliveryOption, error) {
	var out []DeliveryOption
	err := c.do(ctx, call{op: "delivery_options.list", method: http.MethodGet, path: "/api/delivery-options?expand=estimatedDeliveryTime", out: &out})
	return out, err
}

// PaymentSummary returns the cost breakdown of the current cart.
func (c *Client) PaymentSummary(ctx context.Context) (PaymentSummary, error) {
	var out PaymentSummary
	err := c.do(ctx, call{op: "payment_summary.get", method: http.MethodGet, path: "/api/payment-summary", out: &out})
	return out, err
}

// Orders returns the order history with expanded products.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var out []Order
	err := c.do(ctx, call{op: "orders.list", method: http.MethodGet, path: "/api/orders?expand=products", out: &out})
	return out, err
}

// Cart returns the current cart lines with expanded products.
func (c *Client) Cart(ctx context.Context) ([]CartLine, error) {
	var out []CartLine
	err := c.do(ctx, call{op: "cart.get", method: http.MethodGet, path: "/api/cart-items?expand=product", out: &out})
	return out, err
}

// AddCartItem adds quantity units of a product to the cart.
func (c *Client) AddCartItem(ctx context.Context, productID ID, quantity int) error {
	body := struct {
		ProductID ID  `json:"productId"`
		Quantity  int `json:"quantity"`
	}{productID, quantity}
	return c.do(ctx, call{op: "cart.add", method: http.MethodPost, path: "/api/cart-items", body: body, resource: "product", id: productID})
}

// UpdateQuantity sets the quantity of a cart line.
func (c *Client) UpdateQuantity(ctx context.Context, productID ID, quantity int) error {
	body := struct {
		Quantity int `json:"quantity"`
	}{quantity}
	return c.do(ctx, call{op: "cart.update_quantity", method: http.MethodPut, path: cartItemPath(productID), body: body, resource: "cart item", id: productID})
}

// UpdateDeliveryOption persists the delivery option chosen for a cart line.
func (c *Client) UpdateDeliveryOption(ctx context.Context, productID, optionID ID) error {
	body := struct {
		DeliveryOptionID ID `json:"deliveryOptionId"`
	}{optionID}
	return c.do(ctx, call{op: "cart.update_delivery_option", method: http.MethodPut, path: cartItemPath(productID), body: body, resource: "cart item", id: productID})
}

// DeleteCartItem removes a line from the cart.
func (c *Client) DeleteCartItem(ctx context.Context, productID ID) error {
	return c.do(ctx, call{op: "cart.delete", method: http.MethodDelete, path: cartItemPath(productID), resource: "cart item", id: productID})
}

// PlaceOrder turns the current cart into an order.
func (c *Client) PlaceOrder(ctx context.Context) (Order, error) {
	var out Order
	err := c.do(ctx, call{op: "orders.create", method: http.MethodPost, path: "/api/orders", body: struct{}{}, out: &out})
	return out, err
}

func cartItemPath(productID ID) string {
	return "/api/cart-items/" + url.PathEscape(productID.String())
}

type call struct {
	op       string
	method   string
	path     string
	body     any
	out      any
	resource string
	id       ID
}

func (c *Client) do(ctx context.Context, cl call) (err error) {
	ctx, span := otel.Tracer("shopapi.Client").Start(ctx, cl.op)
	defer span.End()
	span.SetAttributes(
		attribute.String("shop.op", cl.op),
		attribute.String("http.method", cl.method),
	)
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = errorResult(err)
			span.RecordError(err)
			c.logger.Debug().Err(err).Str("op", cl.op).Str("result", result).Msg("shop_api_call_failed")
		}
		obs.ObserveUpstream(cl.op, result, time.Since(start))
	}()

	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", cl.op, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		var statusErr *resilience.StatusError
		if errors.As(err, &statusErr) {
			return &common.NetworkError{Op: cl.op, Status: statusErr.StatusCode, Err: err}
		}
		return &common.NetworkError{Op: cl.op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusNotFound {
		resource := cl.resource
		if resource == "" {
			resource = cl.op
		}
		return &common.NotFoundError{Resource: resource, ID: cl.id.String()}
	}
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &common.NetworkError{Op: cl.op, Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(snippet)))}
	}
	if cl.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &common.NetworkError{Op: cl.op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func errorResult(err error) string {
	var nf *common.NotFoundError
	if errors.As(err, &nf) {
		return "not_found"
	}
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return "breaker_open"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "error"
}
