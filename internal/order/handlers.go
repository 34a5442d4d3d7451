package order

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/storefront-toko/internal/shopapi"
	"github.com/noah-isme/storefront-toko/internal/view"
)

// ListData is the order history page model.
type ListData struct {
	Filter   string    `json:"filter"`
	Statuses []string  `json:"statuses"`
	Orders   []Summary `json:"orders"`
}

type Handler struct {
	Service   *Service
	View      *view.Renderer
	CartCount func(r *http.Request) int
}

// Routes mounts the order routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{orderId}", h.Get)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("status")
	orders, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.View.Error(w, r, err)
		return
	}
	if filter == "" {
		filter = "all"
	}
	page := h.page("Your Orders", ListData{Filter: filter, Statuses: Statuses, Orders: orders}, r)
	if placed := r.URL.Query().Get("placed"); placed != "" {
		page.Notice = "Order placed. Thank you for shopping with us."
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(orders)))
	h.View.Render(w, r, http.StatusOK, "orders", page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	details, err := h.Service.Get(r.Context(), shopapi.ParseID(chi.URLParam(r, "orderId")))
	if err != nil {
		h.View.Error(w, r, err)
		return
	}
	h.View.Render(w, r, http.StatusOK, "order", h.page("Order #"+details.ShortID, details, r))
}

func (h *Handler) page(title string, data any, r *http.Request) view.Page {
	p := view.Page{Title: title, Data: data}
	if h.CartCount != nil {
		p.CartCount = h.CartCount(r)
	}
	return p
}
