package user

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/storefront-toko/internal/catalog"
	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/favorites"
	"github.com/noah-isme/storefront-toko/internal/order"
	"github.com/noah-isme/storefront-toko/internal/view"
)

// Tabs of the profile page, in display order.
var Tabs = []string{"profile", "orders", "addresses", "payments", "wishlist"}

// PageData is the profile page model. Only the active tab's list is loaded.
type PageData struct {
	Tab            string                `json:"tab"`
	Tabs           []string              `json:"tabs"`
	Profile        Profile               `json:"profile"`
	Initial        string                `json:"-"`
	MemberSince    string                `json:"memberSince"`
	Addresses      []Address             `json:"addresses,omitempty"`
	PaymentMethods []PaymentMethod       `json:"paymentMethods,omitempty"`
	Orders         []order.Summary       `json:"orders,omitempty"`
	Wishlist       []catalog.ProductCard `json:"wishlist,omitempty"`
}

type Handler struct {
	Service   *Service
	Orders    *order.Service
	Favorites *favorites.Service
	View      *view.Renderer
	CartCount func(r *http.Request) int
}

// Routes mounts the profile area. The wishlist mutations are mounted
// separately under /wishlist.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Show)
	r.Post("/", h.UpdateProfile)

	r.Post("/addresses", h.SaveAddress)
	r.Post("/addresses/{id}", h.SaveAddress)
	r.Post("/addresses/{id}/delete", h.DeleteAddress)
	r.Post("/addresses/{id}/default", h.SetDefaultAddress)

	r.Post("/payment-methods", h.AddPaymentMethod)
	r.Post("/payment-methods/{id}/delete", h.DeletePaymentMethod)
	r.Post("/payment-methods/{id}/default", h.SetDefaultPaymentMethod)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	data, err := h.data(r, r.URL.Query().Get("tab"))
	if err != nil {
		h.View.Error(w, r, err)
		return
	}
	page := h.page(data, r)
	page.Notice = noticeFor(r.URL.Query().Get("saved"))
	h.View.Render(w, r, http.StatusOK, "profile", page)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "profile", func(sid string, values url.Values) (any, error) {
		return h.Service.UpdateProfile(sid, values)
	})
}

func (h *Handler) SaveAddress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutate(w, r, "addresses", func(sid string, values url.Values) (any, error) {
		return h.Service.SaveAddress(sid, id, values)
	})
}

func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutate(w, r, "addresses", func(sid string, _ url.Values) (any, error) {
		return nil, h.Service.DeleteAddress(sid, id)
	})
}

func (h *Handler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutate(w, r, "addresses", func(sid string, _ url.Values) (any, error) {
		return nil, h.Service.SetDefaultAddress(sid, id)
	})
}

func (h *Handler) AddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "payments", func(sid string, values url.Values) (any, error) {
		return h.Service.AddPaymentMethod(sid, values)
	})
}

func (h *Handler) DeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutate(w, r, "payments", func(sid string, _ url.Values) (any, error) {
		return nil, h.Service.DeletePaymentMethod(sid, id)
	})
}

func (h *Handler) SetDefaultPaymentMethod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutate(w, r, "payments", func(sid string, _ url.Values) (any, error) {
		return nil, h.Service.SetDefaultPaymentMethod(sid, id)
	})
}

// mutate runs fn with the submitted form. JSON clients get the result or 204;
// browsers are redirected back to the tab, or see it again with the errors.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, tab string, fn func(sid string, values url.Values) (any, error)) {
	values, err := common.FormInput(r)
	if err != nil {
		h.View.Error(w, r, err)
		return
	}
	sid, _ := common.SessionID(r.Context())
	result, err := fn(sid, values)
	if err != nil {
		h.fail(w, r, tab, err)
		return
	}
	if view.WantsJSON(r) {
		if result == nil {
			common.NoContent(w)
			return
		}
		common.Data(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/profile?tab="+tab+"&saved="+tab, http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, tab string, err error) {
	appErr := common.AsAppError(err)
	if view.WantsJSON(r) || appErr.HTTPStatus >= http.StatusInternalServerError {
		h.View.Error(w, r, err)
		return
	}
	data, derr := h.data(r, tab)
	if derr != nil {
		h.View.Error(w, r, err)
		return
	}
	page := h.page(data, r)
	page.Errors = view.Messages(err)
	h.View.Render(w, r, appErr.HTTPStatus, "profile", page)
}

func (h *Handler) data(r *http.Request, tab string) (PageData, error) {
	tab = normalizeTab(tab)
	sid, _ := common.SessionID(r.Context())
	acc := h.Service.Account(sid)
	data := PageData{
		Tab:         tab,
		Tabs:        Tabs,
		Profile:     acc.Profile,
		Initial:     acc.Profile.Initial(),
		MemberSince: acc.Profile.AccountCreated.Format("January 2006"),
	}
	switch tab {
	case "addresses":
		data.Addresses = acc.Addresses
	case "payments":
		data.PaymentMethods = acc.PaymentMethods
	case "orders":
		if h.Orders != nil {
			orders, err := h.Orders.List(r.Context(), "")
			if err != nil {
				return PageData{}, err
			}
			data.Orders = orders
		}
	case "wishlist":
		if h.Favorites != nil {
			items, err := h.Favorites.List(r.Context(), sid)
			if err != nil {
				return PageData{}, err
			}
			data.Wishlist = items
		}
	}
	return data, nil
}

func (h *Handler) page(data PageData, r *http.Request) view.Page {
	p := view.Page{Title: "My Account", Data: data}
	if h.CartCount != nil {
		p.CartCount = h.CartCount(r)
	}
	return p
}

func normalizeTab(tab string) string {
	for _, t := range Tabs {
		if t == tab {
			return t
		}
	}
	return Tabs[0]
}

func noticeFor(saved string) string {
	switch saved {
	case "profile":
		return "Profile updated"
	case "addresses":
		return "Address book updated"
	case "payments":
		return "Payment methods updated"
	}
	return ""
}
