package catalog

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-toko/internal/lock"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
)

const (
	productsKey        = "products"
	deliveryOptionsKey = "delivery-options"
)

// CachedAPI serves the product and delivery catalogs from the cache and
// passes every other call through to the wrapped API. Cache failures are
// logged and fall back to the upstream. With a Lock, only one instance
// refills a missing entry; the others wait and read what it stored.
type CachedAPI struct {
	shopapi.API
	Cache  *Cache
	Lock   *lock.Locker
	Logger zerolog.Logger
}

const refillLockTTL = 10 * time.Second

var _ shopapi.API = (*CachedAPI)(nil)

func (c *CachedAPI) Products(ctx context.Context) ([]shopapi.Product, error) {
	var products []shopapi.Product
	err := c.fill(ctx, productsKey, &products, func(ctx context.Context) (any, error) {
		var err error
		products, err = c.API.Products(ctx)
		return products, err
	})
	return products, err
}

// DeliveryOptions is cached with the catalog TTL. Estimated delivery times
// are therefore at most one TTL old.
func (c *CachedAPI) DeliveryOptions(ctx context.Context) ([]shopapi.DeliveryOption, error) {
	var options []shopapi.DeliveryOption
	err := c.fill(ctx, deliveryOptionsKey, &options, func(ctx context.Context) (any, error) {
		var err error
		options, err = c.API.DeliveryOptions(ctx)
		return options, err
	})
	return options, err
}

// Invalidate drops both cached catalogs.
func (c *CachedAPI) Invalidate(ctx context.Context) error {
	return c.Cache.Delete(ctx, productsKey, deliveryOptionsKey)
}

// fill decodes key into dst, or runs fetch under the refill lock and stores
// its result. fetch must also assign dst. When the lock cannot be taken for
// any reason other than ctx ending, fetch runs unlocked.
func (c *CachedAPI) fill(ctx context.Context, key string, dst any, fetch func(context.Context) (any, error)) error {
	if c.lookup(ctx, key, dst) {
		return nil
	}
	refilled := false
	refill := func(ctx context.Context) error {
		refilled = true
		if c.lookup(ctx, key, dst) {
			return nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return err
		}
		c.store(ctx, key, v)
		return nil
	}
	err := c.Lock.Do(ctx, "refill:"+key, refillLockTTL, refill)
	if err == nil || refilled || ctx.Err() != nil {
		return err
	}
	// the lock itself is unavailable; the catalog still comes from upstream
	c.Logger.Warn().Err(err).Str("key", key).Msg("catalog refill lock failed")
	_, err = fetch(ctx)
	return err
}

func (c *CachedAPI) lookup(ctx context.Context, key string, dst any) bool {
	ok, err := c.Cache.GetJSON(ctx, key, dst)
	if err != nil {
		c.Logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
		return false
	}
	return ok
}

func (c *CachedAPI) store(ctx context.Context, key string, v any) {
	if err := c.Cache.SetJSON(ctx, key, v); err != nil {
		c.Logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}
