package favorites_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-toko/internal/catalog"
	"github.com/noah-isme/storefront-toko/internal/checkout"
	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/favorites"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
	"github.com/noah-isme/storefront-toko/internal/shopapi/shopapitest"
	"github.com/noah-isme/storefront-toko/internal/view"
)

func catalogProducts(n int) []shopapi.Product {
	out := make([]shopapi.Product, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, shopapi.Product{ID: shopapi.ID(fmt.Sprintf("p%d", i)), Name: fmt.Sprintf("Product %d", i), PriceCents: int64(100 * i), Rating: shopapi.Rating{Stars: 4, Count: i}})
	}
	return out
}

func newService(t *testing.T, store favorites.Store) (*favorites.Service, *shopapitest.Fake) {
	t.Helper()
	fake := shopapitest.New(catalogProducts(8), []shopapi.DeliveryOption{{ID: "1"}})
	cat, err := catalog.NewService(catalog.ServiceConfig{API: fake})
	require.NoError(t, err)
	return &favorites.Service{Catalog: cat, Store: store}, fake
}

func ids(cards []catalog.ProductCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID.String())
	}
	return out
}

func TestWishlistIsFirstProductsMinusRemoved(t *testing.T) {
	svc, _ := newService(t, favorites.NewMemoryStore())
	ctx := context.Background()

	items, err := svc.List(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2", "p3", "p4", "p5", "p6"}, ids(items))

	require.NoError(t, svc.Remove(ctx, "s1", "p3"))
	items, err = svc.List(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2", "p4", "p5", "p6"}, ids(items))

	other, err := svc.List(ctx, "s2")
	require.NoError(t, err)
	require.Len(t, other, 6)

	var nf *common.NotFoundError
	require.ErrorAs(t, svc.Remove(ctx, "s1", "p3"), &nf)
	require.ErrorAs(t, svc.Remove(ctx, "s1", "p7"), &nf)
}

func TestRedisStorePersistsRemovals(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, _ := newService(t, &favorites.RedisStore{Client: client, TTL: time.Hour})
	ctx := context.Background()
	require.NoError(t, svc.Remove(ctx, "s1", "p1"))

	members, err := mr.SMembers("wishlist:removed:s1")
	require.NoError(t, err)
	require.Equal(t, []string{"p1"}, members)
	require.Equal(t, time.Hour, mr.TTL("wishlist:removed:s1"))

	ok, err := svc.Check(ctx, "s1", "p1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMoveToCart(t *testing.T) {
	svc, fake := newService(t, favorites.NewMemoryStore())
	sess := checkout.NewSession(fake, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.MoveToCart(ctx, "s1", sess, "p2"))
	require.Equal(t, []shopapitest.Call{{Method: "POST", ProductID: "p2", Quantity: 1}}, fake.Calls())
	ok, err := svc.Check(ctx, "s1", "p2")
	require.NoError(t, err)
	require.False(t, ok)

	fake.SetErr("cart.add", &common.NetworkError{Op: "cart.add", Status: 503})
	require.Error(t, svc.MoveToCart(ctx, "s1", sess, "p4"))
	ok, err = svc.Check(ctx, "s1", "p4")
	require.NoError(t, err)
	require.True(t, ok)
}

type fixedSession struct{ sess *checkout.Session }

func (f fixedSession) Current(*http.Request) *checkout.Session { return f.sess }

func TestHandlers(t *testing.T) {
	svc, fake := newService(t, favorites.NewMemoryStore())
	h := &favorites.Handler{
		Svc:      svc,
		Sessions: fixedSession{sess: checkout.NewSession(fake, zerolog.Nop())},
		View:     view.New(view.Options{Logger: zerolog.Nop()}),
	}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(common.WithSessionID(req.Context(), "s1")))
		})
	})
	r.Route("/profile/wishlist", h.Routes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/profile/wishlist/p1/delete", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/profile?tab=wishlist", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodPost, "/profile/wishlist/cart", nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"moved":5}}`, rec.Body.String())

	items, err := svc.List(context.Background(), "s1")
	require.NoError(t, err)
	require.Empty(t, items)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/profile/wishlist/p1/cart", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMemoryStoreForgetRestoresWishlist(t *testing.T) {
	store := favorites.NewMemoryStore()
	svc, _ := newService(t, store)
	ctx := context.Background()

	require.NoError(t, svc.Remove(ctx, "s1", "p1"))
	store.Forget("s1")
	items, err := svc.List(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "p1", items[0].ID.String())
}
