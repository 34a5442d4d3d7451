package user_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/user"
	"github.com/noah-isme/storefront-toko/internal/view"
)

func newService() *user.Service {
	svc := user.NewService(user.NewStore())
	n := 0
	svc.NewID = func() string {
		n++
		return "new-" + string(rune('0'+n))
	}
	svc.Now = func() time.Time { return time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC) }
	return svc
}

func validAddress() url.Values {
	return url.Values{
		"type":      {"Other"},
		"name":      {"Asha Rao"},
		"phone":     {"+91 9876543210"},
		"houseFlat": {"12 MG Road"},
		"street":    {"Indiranagar"},
		"city":      {"Bangalore"},
		"state":     {"Karnataka"},
		"pincode":   {"560038"},
	}
}

func defaults[T any](list []T, isDefault func(T) bool) int {
	n := 0
	for _, v := range list {
		if isDefault(v) {
			n++
		}
	}
	return n
}

func TestDemoAccountPerSession(t *testing.T) {
	svc := newService()
	acc := svc.Account("s1")
	require.Equal(t, "Sunakshi Gawas", acc.Profile.FullName)
	require.Equal(t, "S", acc.Profile.Initial())
	require.Len(t, acc.Addresses, 2)
	require.True(t, acc.Addresses[0].IsDefault)
	require.Len(t, acc.PaymentMethods, 3)

	require.NoError(t, svc.DeleteAddress("s1", "2"))
	require.Len(t, svc.Account("s1").Addresses, 1)
	require.Len(t, svc.Account("s2").Addresses, 2)
}

func TestUpdateProfileValidates(t *testing.T) {
	svc := newService()
	_, err := svc.UpdateProfile("s1", url.Values{"fullName": {""}, "email": {"nope"}, "phone": {"+91 9604513436"}})
	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 2)
	require.Equal(t, "Sunakshi Gawas", svc.Account("s1").Profile.FullName)

	p, err := svc.UpdateProfile("s1", url.Values{"fullName": {" Asha Rao "}, "email": {"asha@example.com"}, "phone": {"+91 9876543210"}})
	require.NoError(t, err)
	require.Equal(t, "Asha Rao", p.FullName)
	require.Equal(t, "asha@example.com", svc.Account("s1").Profile.Email)
}

func TestSaveAddressAddsAndEdits(t *testing.T) {
	svc := newService()
	addr, err := svc.SaveAddress("s1", "", validAddress())
	require.NoError(t, err)
	require.Equal(t, "new-1", addr.ID)
	require.Equal(t, "India", addr.Country)
	require.False(t, addr.IsDefault)

	values := validAddress()
	values.Set("city", "Mysore")
	edited, err := svc.SaveAddress("s1", "1", values)
	require.NoError(t, err)
	require.True(t, edited.IsDefault)
	require.Equal(t, "Mysore", svc.Account("s1").Addresses[0].City)

	_, err = svc.SaveAddress("s1", "missing", validAddress())
	var nf *common.NotFoundError
	require.True(t, errors.As(err, &nf))

	bad := validAddress()
	bad.Set("pincode", "12ab")
	_, err = svc.SaveAddress("s1", "", bad)
	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "Pincode", verr.Fields[0].Field)
}

func TestFirstAddressOfEmptyBookIsDefault(t *testing.T) {
	svc := newService()
	require.NoError(t, svc.DeleteAddress("s1", "1"))
	require.True(t, svc.Account("s1").Addresses[0].IsDefault, "remaining address promoted")
	require.NoError(t, svc.DeleteAddress("s1", "2"))

	addr, err := svc.SaveAddress("s1", "", validAddress())
	require.NoError(t, err)
	require.True(t, addr.IsDefault)
}

func TestSetDefaultAddressIsExclusive(t *testing.T) {
	svc := newService()
	require.NoError(t, svc.SetDefaultAddress("s1", "2"))
	acc := svc.Account("s1")
	require.Equal(t, 1, defaults(acc.Addresses, func(a user.Address) bool { return a.IsDefault }))
	require.True(t, acc.Addresses[1].IsDefault)

	var nf *common.NotFoundError
	require.True(t, errors.As(svc.SetDefaultAddress("s1", "9"), &nf))
}

func TestAddCardKeepsLastFour(t *testing.T) {
	svc := newService()
	pm, err := svc.AddPaymentMethod("s1", url.Values{
		"type":       {"card"},
		"cardNumber": {"5555 4444 3333 1111"},
		"expiry":     {"09/27"},
		"cvv":        {"123"},
		"holderName": {"Asha Rao"},
	})
	require.NoError(t, err)
	require.Equal(t, "Mastercard", pm.CardType)
	require.Equal(t, "1111", pm.LastFour)
	require.Equal(t, "2027", pm.ExpiryYear)

	raw, err := json.Marshal(svc.Account("s1").PaymentMethods)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "5555444433331111")
}

func TestAddPaymentMethodRejectsBadInput(t *testing.T) {
	svc := newService()
	cases := map[string]url.Values{
		"unknown type":  {"type": {"cash"}},
		"expired card":  {"type": {"card"}, "cardNumber": {"4111111111111111"}, "expiry": {"01/25"}, "cvv": {"123"}, "holderName": {"A"}},
		"bad month":     {"type": {"card"}, "cardNumber": {"4111111111111111"}, "expiry": {"13/27"}, "cvv": {"123"}, "holderName": {"A"}},
		"upi without @": {"type": {"upi"}, "upiId": {"johndoe"}},
		"no bank":       {"type": {"netbanking"}},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.AddPaymentMethod("s1", values)
			var verr *common.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
		})
	}
	require.Len(t, svc.Account("s1").PaymentMethods, 3)
}

func TestDeleteDefaultPaymentMethodPromotesNext(t *testing.T) {
	svc := newService()
	require.NoError(t, svc.DeletePaymentMethod("s1", "1"))
	acc := svc.Account("s1")
	require.Len(t, acc.PaymentMethods, 2)
	require.True(t, acc.PaymentMethods[0].IsDefault)

	require.NoError(t, svc.SetDefaultPaymentMethod("s1", "3"))
	acc = svc.Account("s1")
	require.Equal(t, 1, defaults(acc.PaymentMethods, func(p user.PaymentMethod) bool { return p.IsDefault }))

	var nf *common.NotFoundError
	require.True(t, errors.As(svc.DeletePaymentMethod("s1", "1"), &nf))
}

func TestCardType(t *testing.T) {
	require.Equal(t, "Visa", user.CardType("4532"))
	require.Equal(t, "Mastercard", user.CardType("5100"))
	require.Equal(t, "American Express", user.CardType("3782"))
	require.Equal(t, "Rupay", user.CardType("6071"))
	require.Equal(t, "Card", user.CardType(""))
}

func newRouter(svc *user.Service) http.Handler {
	h := &user.Handler{Service: svc, View: view.New(view.Options{Logger: zerolog.Nop()})}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(common.WithSessionID(req.Context(), "s1")))
		})
	})
	r.Route("/profile", h.Routes)
	return r
}

func TestProfilePageRendersTab(t *testing.T) {
	r := newRouter(newService())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile?tab=addresses", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "My Account")
	require.Contains(t, rec.Body.String(), "Sr.no 14 Jay jawan nager")

	req := httptest.NewRequest(http.MethodGet, "/profile?tab=bogus", nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data user.PageData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "profile", body.Data.Tab)
	require.Equal(t, "June 2025", body.Data.MemberSince)
}

func TestAddressRoutes(t *testing.T) {
	svc := newService()
	r := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/profile/addresses", strings.NewReader(validAddress().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/profile?tab=addresses&saved=addresses", rec.Header().Get("Location"))
	require.Len(t, svc.Account("s1").Addresses, 3)

	req = httptest.NewRequest(http.MethodPost, "/profile/addresses/2/default", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, svc.Account("s1").Addresses[1].IsDefault)

	bad := validAddress()
	bad.Del("city")
	req = httptest.NewRequest(http.MethodPost, "/profile/addresses", strings.NewReader(bad.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "City is required")

	req = httptest.NewRequest(http.MethodPost, "/profile/addresses/nope/delete", nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentMethodRouteReturnsSavedMethod(t *testing.T) {
	r := newRouter(newService())
	req := httptest.NewRequest(http.MethodPost, "/profile/payment-methods", strings.NewReader(`{"type":"upi","upiId":"asha@okhdfc"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data user.PaymentMethod `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "asha@okhdfc", body.Data.UPIID)
	require.False(t, body.Data.IsDefault)
}
