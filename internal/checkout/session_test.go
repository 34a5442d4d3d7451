package checkout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/obs"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
	"github.com/noah-isme/storefront-toko/internal/shopapi/shopapitest"
)

func newLoadedSession(t *testing.T) (*Session, *shopapitest.Fake) {
	t.Helper()
	fake := shopapitest.New(testProducts, testOptions)
	fake.SetCart(
		shopapi.CartLine{ProductID: "p1", Quantity: 2, DeliveryOptionID: "1"},
		shopapi.CartLine{ProductID: "p2", Quantity: 1, DeliveryOptionID: "2"},
	)
	sess := NewSession(fake, zerolog.Nop())
	require.NoError(t, sess.Load(context.Background()))
	return sess, fake
}

func TestLoadFetchesCatalogOnce(t *testing.T) {
	sess, fake := newLoadedSession(t)
	require.NoError(t, sess.Load(context.Background()))
	require.Equal(t, 1, fake.Reads("delivery_options.list"))
	require.Equal(t, 2, fake.Reads("cart.get"))

	st := sess.Snapshot()
	require.Len(t, st.Cart, 2)
	require.Equal(t, map[shopapi.ID]shopapi.ID{"p1": "1", "p2": "2"}, st.Selection)
	require.NotNil(t, st.Summary)
	require.Equal(t, int64(499), st.Summary.ShippingCostCents)
}

func TestSelectionUpdatesDateImmediatelyWithSinglePut(t *testing.T) {
	sess, fake := newLoadedSession(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	fake.BeforeMutation = func(ctx context.Context, call shopapitest.Call) error {
		close(entered)
		<-release
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- sess.OnSelectDeliveryOption(context.Background(), "p1", "3") }()

	<-entered
	st := sess.Snapshot()
	require.Equal(t, "Delivery date: Saturday, June 21", testPresenter.ResolveSelectedOption(&st, "p1"))
	require.Equal(t, "Delivery date: Monday, June 23", testPresenter.ResolveSelectedOption(&st, "p2"))
	close(release)
	require.NoError(t, <-done)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, shopapitest.Call{Method: "PUT", ProductID: "p1", OptionID: "3"}, calls[0])

	st = sess.Snapshot()
	require.Equal(t, int64(999+499), st.Summary.ShippingCostCents)
}

func TestSelectionRejectsUnknownOption(t *testing.T) {
	sess, fake := newLoadedSession(t)
	err := sess.OnSelectDeliveryOption(context.Background(), "p1", "77")
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Empty(t, fake.Calls())
	require.Equal(t, shopapi.ID("1"), sess.Snapshot().Selection["p1"])
}

func TestStaleSelectionResponseIsDropped(t *testing.T) {
	sess, fake := newLoadedSession(t)

	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	var once sync.Once
	fake.BeforeMutation = func(ctx context.Context, call shopapitest.Call) error {
		if call.OptionID == "2" {
			once.Do(func() { close(firstEntered) })
			<-releaseFirst
		}
		return nil
	}

	first := make(chan error, 1)
	go func() { first <- sess.OnSelectDeliveryOption(context.Background(), "p1", "2") }()
	<-firstEntered

	require.NoError(t, sess.OnSelectDeliveryOption(context.Background(), "p1", "3"))
	summaryAfterSecond := *sess.Snapshot().Summary

	close(releaseFirst)
	require.NoError(t, <-first)

	st := sess.Snapshot()
	require.Equal(t, shopapi.ID("3"), st.Selection["p1"])
	require.Equal(t, "Delivery date: Saturday, June 21", testPresenter.ResolveSelectedOption(&st, "p1"))
	require.Equal(t, summaryAfterSecond, *st.Summary)
}

func TestSelectionOvertakenByAnotherLineStillCountsAsPersisted(t *testing.T) {
	obs.MustRegisterDomainMetrics("checkout_test", prometheus.NewRegistry())
	sess, fake := newLoadedSession(t)
	persisted := testutil.ToFloat64(obs.DeliverySelectionsTotal.WithLabelValues("persisted"))
	superseded := testutil.ToFloat64(obs.DeliverySelectionsTotal.WithLabelValues("superseded"))

	var armed atomic.Bool
	armed.Store(true)
	entered := make(chan struct{})
	release := make(chan struct{})
	fake.BeforeRead = func(op string) {
		if op == "cart.get" && armed.CompareAndSwap(true, false) {
			close(entered)
			<-release
		}
	}

	first := make(chan error, 1)
	go func() { first <- sess.OnSelectDeliveryOption(context.Background(), "p1", "3") }()
	<-entered

	require.NoError(t, sess.UpdateQuantity(context.Background(), "p2", 4))
	close(release)
	require.NoError(t, <-first)

	st := sess.Snapshot()
	require.Equal(t, shopapi.ID("3"), st.Selection["p1"])
	line, ok := st.Line("p2")
	require.True(t, ok)
	require.Equal(t, 4, line.Quantity)
	require.Equal(t, persisted+1, testutil.ToFloat64(obs.DeliverySelectionsTotal.WithLabelValues("persisted")))
	require.Equal(t, superseded, testutil.ToFloat64(obs.DeliverySelectionsTotal.WithLabelValues("superseded")))
}

func TestSelectionFailureKeepsChoiceAndReturnsNetworkError(t *testing.T) {
	sess, fake := newLoadedSession(t)
	fake.SetErr("cart.update_delivery_option", &common.NetworkError{Op: "cart.update_delivery_option", Status: 503})

	err := sess.OnSelectDeliveryOption(context.Background(), "p1", "2")
	var netErr *common.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, 503, netErr.Status)

	st := sess.Snapshot()
	require.Equal(t, "Delivery date: Monday, June 23", testPresenter.ResolveSelectedOption(&st, "p1"))
}

func TestSelectionTransportErrorIsWrapped(t *testing.T) {
	sess, fake := newLoadedSession(t)
	fake.SetErr("cart.update_delivery_option", errors.New("connection reset"))
	err := sess.OnSelectDeliveryOption(context.Background(), "p1", "2")
	var netErr *common.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, "persist delivery option", netErr.Op)
}

func TestUpdateQuantityValidatesRange(t *testing.T) {
	sess, fake := newLoadedSession(t)
	for _, qty := range []int{0, -1, 11} {
		err := sess.UpdateQuantity(context.Background(), "p1", qty)
		var verr *common.ValidationError
		require.ErrorAs(t, err, &verr, "quantity %d", qty)
	}
	require.Empty(t, fake.Calls())

	require.NoError(t, sess.UpdateQuantity(context.Background(), "p1", 5))
	line, ok := func() (shopapi.CartLine, bool) { st := sess.Snapshot(); return st.Line("p1") }()
	require.True(t, ok)
	require.Equal(t, 5, line.Quantity)
	require.Equal(t, 6, sess.Snapshot().Summary.TotalItems)

	var nf *common.NotFoundError
	require.ErrorAs(t, sess.UpdateQuantity(context.Background(), "p9", 2), &nf)
}

func TestDeleteLineDropsSelection(t *testing.T) {
	sess, fake := newLoadedSession(t)
	require.NoError(t, sess.OnSelectDeliveryOption(context.Background(), "p2", "3"))
	require.NoError(t, sess.DeleteLine(context.Background(), "p2"))

	st := sess.Snapshot()
	require.Len(t, st.Cart, 1)
	require.NotContains(t, st.Selection, shopapi.ID("p2"))

	// deleting again is tolerated
	require.NoError(t, sess.DeleteLine(context.Background(), "p2"))
	require.Len(t, fake.Calls(), 3)
}

func TestAddToCartValidatesAndReloads(t *testing.T) {
	fake := shopapitest.New(testProducts, testOptions)
	sess := NewSession(fake, zerolog.Nop())

	var verr *common.ValidationError
	require.ErrorAs(t, sess.AddToCart(context.Background(), "", 1), &verr)
	require.ErrorAs(t, sess.AddToCart(context.Background(), "p1", 0), &verr)

	require.NoError(t, sess.AddToCart(context.Background(), "p1", 2))
	st := sess.Snapshot()
	require.Equal(t, 2, st.ItemCount())
	require.Equal(t, shopapi.ID("1"), st.Selection["p1"])
}

func validForm() OrderForm {
	return OrderForm{
		FullName:      "Sunakshi Gawas",
		Email:         "sunakshi.gawas@example.com",
		Phone:         "+91 96045-13436",
		AddressLine:   "Flat 302, Sunshine Apartments",
		City:          "Pune",
		PostalCode:    "411006",
		PaymentMethod: "UPI",
	}
}

func TestPlaceOrderCollectsEveryFieldError(t *testing.T) {
	fake := shopapitest.New(testProducts, testOptions)
	sess := NewSession(fake, zerolog.Nop())
	require.NoError(t, sess.Load(context.Background()))

	_, err := sess.PlaceOrder(context.Background(), OrderForm{Email: "not-an-email", PostalCode: "12"})
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	require.Equal(t, []string{"FullName", "Email", "Phone", "AddressLine", "City", "PostalCode", "PaymentMethod", "cart"}, fields)
	require.Contains(t, verr.Messages(), "Email must be a valid email address")
	require.Contains(t, verr.Messages(), "Your cart is empty")
	require.Empty(t, fake.Calls())
}

func TestPlaceOrderSubmitsCart(t *testing.T) {
	sess, fake := newLoadedSession(t)
	fake.Now = func() time.Time { return time.Date(2025, time.June, 18, 9, 0, 0, 0, time.UTC) }

	order, err := sess.PlaceOrder(context.Background(), validForm())
	require.NoError(t, err)
	require.Equal(t, shopapi.ID("order-1"), order.ID)
	require.Len(t, order.Products, 2)
	require.Equal(t, []shopapitest.Call{{Method: "POST"}}, fake.Calls())
}

func TestOrderFormNormalize(t *testing.T) {
	f := validForm()
	f.Normalize()
	require.Equal(t, "919604513436", f.Phone)
	require.Equal(t, "upi", f.PaymentMethod)
	require.NoError(t, common.ValidateStruct(f))
}
