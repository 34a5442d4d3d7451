package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-toko/internal/money"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
	"github.com/noah-isme/storefront-toko/internal/shopapi/shopapitest"
	"github.com/noah-isme/storefront-toko/internal/view"
)

type stubSessions struct {
	api    shopapi.API
	sess   *Session
	resets int
}

func (s *stubSessions) Current(*http.Request) *Session {
	if s.sess == nil {
		s.sess = NewSession(s.api, zerolog.Nop())
	}
	return s.sess
}

func (s *stubSessions) ResetCurrent(*http.Request) {
	s.resets++
	s.sess = nil
}

func newCheckoutRouter(t *testing.T) (http.Handler, *shopapitest.Fake, *stubSessions) {
	t.Helper()
	fake := shopapitest.New(testProducts, testOptions)
	fake.SetCart(
		shopapi.CartLine{ProductID: "p1", Quantity: 2, DeliveryOptionID: "1"},
		shopapi.CartLine{ProductID: "p2", Quantity: 1, DeliveryOptionID: "2"},
	)
	sessions := &stubSessions{api: fake}
	h := &Handler{
		Sessions:  sessions,
		View:      view.New(view.Options{Money: money.Default, Logger: zerolog.Nop()}),
		Presenter: testPresenter,
	}
	r := chi.NewRouter()
	r.Route("/checkout", h.Routes)
	return r, fake, sessions
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestShowCheckoutJSON(t *testing.T) {
	router, _, _ := newCheckoutRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/checkout", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data PageData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 3, body.Data.ItemCount)
	require.Len(t, body.Data.Lines, 2)
	require.Equal(t, "Delivery date: Wednesday, June 25", body.Data.Lines[0].DeliveryDate)
	require.Equal(t, "₹49.90", body.Data.Summary.Shipping)
	require.Equal(t, PaymentMethods, body.Data.PaymentMethods)
}

func TestShowCheckoutHTML(t *testing.T) {
	router, _, _ := newCheckoutRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/checkout", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	require.Contains(t, html, "Delivery date: Monday, June 23")
	require.Contains(t, html, "FREE Shipping")
	require.Contains(t, html, "Black and Gray Athletic Cotton Socks")
}

func TestSelectDeliveryOptionRedirectsAfterSinglePut(t *testing.T) {
	router, fake, sessions := newCheckoutRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, postForm("/checkout/items/p1/delivery-option", url.Values{"deliveryOptionId": {"3"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/checkout", rec.Header().Get("Location"))
	require.Equal(t, []shopapitest.Call{{Method: "PUT", ProductID: "p1", OptionID: "3"}}, fake.Calls())

	st := sessions.sess.Snapshot()
	require.Equal(t, "Delivery date: Saturday, June 21", testPresenter.ResolveSelectedOption(&st, "p1"))
}

func TestSelectDeliveryOptionFailureRendersError(t *testing.T) {
	router, fake, _ := newCheckoutRouter(t)
	fake.SetErr("cart.update_delivery_option", errors.New("connection refused"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, postForm("/checkout/items/p1/delivery-option", url.Values{"deliveryOptionId": {"2"}}))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	html := rec.Body.String()
	require.Contains(t, html, "the shop service is unavailable")
	require.NotContains(t, html, "Delivery date: Wednesday, June 25")
}

func TestUpdateQuantityRejectsOutOfRange(t *testing.T) {
	router, fake, _ := newCheckoutRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/checkout/items/p1/quantity", strings.NewReader(`{"quantity":11}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Quantity must be between 1 and 10")
	require.Empty(t, fake.Calls())
}

func TestDeleteLineJSON(t *testing.T) {
	router, _, _ := newCheckoutRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/checkout/items/p2/delete", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Lines, 1)
	require.Equal(t, 2, body.Data.ItemCount)
}

func TestPlaceOrderInvalidFormShowsModal(t *testing.T) {
	router, fake, sessions := newCheckoutRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, postForm("/checkout/orders", url.Values{"fullName": {"Sunakshi Gawas"}, "email": {"nope"}}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	html := rec.Body.String()
	require.Contains(t, html, "modal-errors")
	require.Contains(t, html, "Email must be a valid email address")
	require.Contains(t, html, "Phone is required")
	require.Contains(t, html, `value="Sunakshi Gawas"`)
	require.Empty(t, fake.Calls())
	require.Zero(t, sessions.resets)
}

func TestPlaceOrderSuccessResetsSessionAndRedirects(t *testing.T) {
	router, fake, sessions := newCheckoutRouter(t)
	form := url.Values{
		"fullName":      {"Sunakshi Gawas"},
		"email":         {"sunakshi.gawas@example.com"},
		"phone":         {"9604513436"},
		"addressLine":   {"Flat 302, Sunshine Apartments"},
		"city":          {"Pune"},
		"postalCode":    {"411006"},
		"paymentMethod": {"card"},
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, postForm("/checkout/orders", form))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/orders?placed=order-1", rec.Header().Get("Location"))
	require.Equal(t, 1, sessions.resets)
	require.Len(t, fake.Calls(), 1)
}

func TestRestartResetsSession(t *testing.T) {
	router, _, sessions := newCheckoutRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout/restart", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, 1, sessions.resets)
}

func TestOrderGuardsWrapPlaceOrderOnly(t *testing.T) {
	fake := shopapitest.New(testProducts, testOptions)
	fake.SetCart(shopapi.CartLine{ProductID: "p1", Quantity: 1, DeliveryOptionID: "1"})
	guarded := 0
	h := &Handler{
		Sessions:    &stubSessions{api: fake},
		View:        view.New(view.Options{Money: money.Default, Logger: zerolog.Nop()}),
		Presenter:   testPresenter,
		OrderGuards: []func(http.Handler) http.Handler{func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				guarded++
				w.WriteHeader(http.StatusConflict)
			})
		}},
	}
	r := chi.NewRouter()
	r.Route("/checkout", h.Routes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, postForm("/checkout/orders", url.Values{}))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Empty(t, fake.Calls())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout/restart", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, 1, guarded)
}
