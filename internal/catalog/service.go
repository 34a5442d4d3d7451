package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/money"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
)

// Service lists and looks up products for the storefront views.
type Service struct {
	api          shopapi.API
	money        money.Formatter
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	API          shopapi.API
	Money        money.Formatter
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query string
	Page  int
	Limit int
}

// ProductCard is a product as shown in the product grid and the wishlist.
type ProductCard struct {
	ID          shopapi.ID `json:"id"`
	Name        string     `json:"name"`
	Image       string     `json:"image"`
	Price       string     `json:"price"`
	PriceCents  int64      `json:"priceCents"`
	RatingImage string     `json:"ratingImage"`
	Stars       string     `json:"stars"`
	RatingCount int        `json:"ratingCount"`
}

// ProductListResult contains list data and pagination metadata.
type ProductListResult struct {
	Items      []ProductCard `json:"items"`
	Query      string        `json:"query,omitempty"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.API == nil {
		return nil, errors.New("catalog: shop api is required")
	}
	m := cfg.Money
	if m.Symbol == "" {
		m = money.Default
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 24
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{api: cfg.API, money: m, defaultLimit: defaultLimit, maxLimit: maxLimit}, nil
}

// ParseListParams normalises raw query values into typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1, Limit: s.defaultLimit}
	params.Query = strings.TrimSpace(values.Get("q"))
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, common.NewValidationError("page", "page must be a positive integer")
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return params, common.NewValidationError("limit", "limit must be a positive integer")
		}
		params.Limit = limit
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}
	return params, nil
}

// ListProducts filters the catalog by name and keywords and returns one page.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ProductListResult, error) {
	products, err := s.api.Products(ctx)
	if err != nil {
		return ProductListResult{}, fmt.Errorf("list products: %w", err)
	}
	matched := products[:0:0]
	for _, p := range products {
		if matches(p, params.Query) {
			matched = append(matched, p)
		}
	}
	limit := params.Limit
	if limit < 1 {
		limit = s.defaultLimit
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	result := ProductListResult{
		Query:      params.Query,
		Total:      len(matched),
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(len(matched)) / float64(limit))),
	}
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	result.Items = s.Cards(matched[start:end])
	return result, nil
}

// Product looks up one product by id.
func (s *Service) Product(ctx context.Context, id shopapi.ID) (shopapi.Product, error) {
	products, err := s.api.Products(ctx)
	if err != nil {
		return shopapi.Product{}, fmt.Errorf("get product: %w", err)
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return shopapi.Product{}, &common.NotFoundError{Resource: "product", ID: id.String()}
}

// Head returns the first n products of the catalog.
func (s *Service) Head(ctx context.Context, n int) ([]shopapi.Product, error) {
	products, err := s.api.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if n >= 0 && n < len(products) {
		products = products[:n]
	}
	return products, nil
}

// Cards converts products for display.
func (s *Service) Cards(products []shopapi.Product) []ProductCard {
	out := make([]ProductCard, 0, len(products))
	for _, p := range products {
		out = append(out, s.Card(p))
	}
	return out
}

// Card converts one product for display.
func (s *Service) Card(p shopapi.Product) ProductCard {
	return ProductCard{
		ID:          p.ID,
		Name:        p.Name,
		Image:       p.Image,
		Price:       s.money.Format(p.PriceCents),
		PriceCents:  p.PriceCents,
		RatingImage: RatingImage(p.Rating.Stars),
		Stars:       Stars(p.Rating.Stars),
		RatingCount: p.Rating.Count,
	}
}

// RatingImage returns the star strip image path, e.g. images/ratings/rating-45.png.
func RatingImage(stars float64) string {
	return fmt.Sprintf("images/ratings/rating-%d.png", int(math.Round(clampStars(stars)*10)))
}

// Stars renders a rating as filled and empty stars.
func Stars(stars float64) string {
	full := int(math.Floor(clampStars(stars)))
	return strings.Repeat("★", full) + strings.Repeat("☆", 5-full)
}

func clampStars(stars float64) float64 {
	switch {
	case stars < 0:
		return 0
	case stars > 5:
		return 5
	default:
		return stars
	}
}

func matches(p shopapi.Product, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.Name), q) {
		return true
	}
	for _, kw := range p.Keywords {
		if strings.Contains(strings.ToLower(kw), q) {
			return true
		}
	}
	return false
}
