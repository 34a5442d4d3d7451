package checkout

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
	"github.com/noah-isme/storefront-toko/internal/view"
)

// Sessions resolves the checkout session bound to a request.
type Sessions interface {
	Current(r *http.Request) *Session
	ResetCurrent(r *http.Request)
}

// PageData is the checkout page model.
type PageData struct {
	View
	Form           OrderForm `json:"form"`
	PaymentMethods []string  `json:"paymentMethods"`
}

// Handler serves the checkout page and its form posts.
type Handler struct {
	Sessions  Sessions
	View      *view.Renderer
	Presenter Presenter
	// OrderGuards wrap the place-order route, e.g. idempotency keys.
	OrderGuards []func(http.Handler) http.Handler
}

// Routes mounts the checkout routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Show)
	r.Post("/items/{productId}/delivery-option", h.SelectDeliveryOption)
	r.Post("/items/{productId}/quantity", h.UpdateQuantity)
	r.Post("/items/{productId}/delete", h.DeleteLine)
	r.With(h.OrderGuards...).Post("/orders", h.PlaceOrder)
	r.Post("/restart", h.Restart)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	sess := h.Sessions.Current(r)
	if err := sess.Load(r.Context()); err != nil {
		h.View.Error(w, r, err)
		return
	}
	h.render(w, r, sess, http.StatusOK, nil, OrderForm{})
}

func (h *Handler) SelectDeliveryOption(w http.ResponseWriter, r *http.Request) {
	sess, values, ok := h.prepare(w, r)
	if !ok {
		return
	}
	productID := shopapi.ParseID(chi.URLParam(r, "productId"))
	optionID := shopapi.ParseID(values.Get("deliveryOptionId"))
	if optionID.IsZero() {
		h.fail(w, r, sess, common.NewValidationError("deliveryOptionId", NoOptionText), OrderForm{})
		return
	}
	if err := sess.OnSelectDeliveryOption(r.Context(), productID, optionID); err != nil {
		h.fail(w, r, sess, err, OrderForm{})
		return
	}
	h.done(w, r, sess)
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sess, values, ok := h.prepare(w, r)
	if !ok {
		return
	}
	productID := shopapi.ParseID(chi.URLParam(r, "productId"))
	quantity, err := strconv.Atoi(values.Get("quantity"))
	if err != nil {
		h.fail(w, r, sess, common.NewValidationError("quantity", "Quantity must be a whole number"), OrderForm{})
		return
	}
	if err := sess.UpdateQuantity(r.Context(), productID, quantity); err != nil {
		h.fail(w, r, sess, err, OrderForm{})
		return
	}
	h.done(w, r, sess)
}

func (h *Handler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.prepare(w, r)
	if !ok {
		return
	}
	productID := shopapi.ParseID(chi.URLParam(r, "productId"))
	if err := sess.DeleteLine(r.Context(), productID); err != nil {
		h.fail(w, r, sess, err, OrderForm{})
		return
	}
	h.done(w, r, sess)
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess, values, ok := h.prepare(w, r)
	if !ok {
		return
	}
	form := OrderFormFromValues(values)
	order, err := sess.PlaceOrder(r.Context(), form)
	if err != nil {
		h.fail(w, r, sess, err, form)
		return
	}
	h.Sessions.ResetCurrent(r)
	if view.WantsJSON(r) {
		common.Data(w, http.StatusCreated, order)
		return
	}
	http.Redirect(w, r, "/orders?placed="+url.QueryEscape(order.ID.String()), http.StatusSeeOther)
}

func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	h.Sessions.ResetCurrent(r)
	h.View.Redirect(w, r, "/checkout")
}

// prepare loads the session, so that validation against the delivery catalog
// and the cart works on the first request of a session, and reads the input.
func (h *Handler) prepare(w http.ResponseWriter, r *http.Request) (*Session, url.Values, bool) {
	sess := h.Sessions.Current(r)
	values, err := common.FormInput(r)
	if err != nil {
		h.View.Error(w, r, err)
		return nil, nil, false
	}
	if err := sess.Load(r.Context()); err != nil {
		h.View.Error(w, r, err)
		return nil, nil, false
	}
	return sess, values, true
}

func (h *Handler) done(w http.ResponseWriter, r *http.Request, sess *Session) {
	if view.WantsJSON(r) {
		st := sess.Snapshot()
		common.Data(w, http.StatusOK, h.Presenter.View(&st))
		return
	}
	http.Redirect(w, r, "/checkout", http.StatusSeeOther)
}

// fail re-renders the checkout page with the error messages. The local state
// is shown as it stands, including an optimistic selection whose persistence
// failed.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, sess *Session, err error, form OrderForm) {
	if view.WantsJSON(r) {
		h.View.Error(w, r, err)
		return
	}
	h.render(w, r, sess, common.AsAppError(err).HTTPStatus, view.Messages(err), form)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, sess *Session, status int, errs []string, form OrderForm) {
	st := sess.Snapshot()
	data := PageData{View: h.Presenter.View(&st), Form: form, PaymentMethods: PaymentMethods}
	h.View.Render(w, r, status, "checkout", view.Page{
		Title:     "Checkout",
		CartCount: data.ItemCount,
		Errors:    errs,
		Data:      data,
	})
}
