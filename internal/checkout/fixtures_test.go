package checkout

import (
	"time"

	"github.com/noah-isme/storefront-toko/internal/money"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
)

func ms(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC).UnixMilli()
}

var (
	testOptions = []shopapi.DeliveryOption{
		{ID: "1", DeliveryDays: 7, PriceCents: 0, EstimatedDeliveryTimeMs: ms(2025, time.June, 25)},
		{ID: "2", DeliveryDays: 3, PriceCents: 499, EstimatedDeliveryTimeMs: ms(2025, time.June, 23)},
		{ID: "3", DeliveryDays: 1, PriceCents: 999, EstimatedDeliveryTimeMs: ms(2025, time.June, 21)},
	}
	testProducts = []shopapi.Product{
		{ID: "p1", Name: "Black and Gray Athletic Cotton Socks", Image: "images/products/athletic-cotton-socks-6-pairs.jpg", PriceCents: 1090},
		{ID: "p2", Name: "Intermediate Size Basketball", Image: "images/products/intermediate-composite-basketball.jpg", PriceCents: 2095},
	}
	testPresenter = NewPresenter(money.Default, time.UTC)
)
