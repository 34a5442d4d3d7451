package catalog

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/noah-isme/storefront-toko/internal/checkout"
	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
	"github.com/noah-isme/storefront-toko/internal/view"
)

// Sessions resolves the checkout session bound to a request.
type Sessions interface {
	Current(r *http.Request) *checkout.Session
}

// Handler serves the product grid and the add-to-cart form.
type Handler struct {
	service  *Service
	sessions Sessions
	view     *view.Renderer
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service  *Service
	Sessions Sessions
	View     *view.Renderer
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, sessions: cfg.Sessions, view: cfg.View}
}

// Home handles GET / with optional ?q= search and pagination.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	params, err := h.service.ParseListParams(r.URL.Query())
	if err != nil {
		h.view.Error(w, r, err)
		return
	}
	result, err := h.service.ListProducts(r.Context(), params)
	if err != nil {
		h.view.Error(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "home", view.Page{
		Title:     "Ecommerce Project",
		CartCount: h.cartCount(r),
		Notice:    addedNotice(r.URL.Query().Get("added")),
		Data:      result,
	})
}

// AddToCart handles POST /cart with productId and quantity fields.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	values, err := common.FormInput(r)
	if err != nil {
		h.view.Error(w, r, err)
		return
	}
	productID := shopapi.ParseID(values.Get("productId"))
	quantity := common.AtoiDefault(values.Get("quantity"), 1)
	product, err := h.service.Product(r.Context(), productID)
	if err != nil {
		h.view.Error(w, r, err)
		return
	}
	sess := h.sessions.Current(r)
	if err := sess.AddToCart(r.Context(), product.ID, quantity); err != nil {
		h.view.Error(w, r, err)
		return
	}
	if view.WantsJSON(r) {
		st := sess.Snapshot()
		common.Data(w, http.StatusOK, map[string]any{"cartQuantity": st.ItemCount()})
		return
	}
	http.Redirect(w, r, "/?added="+strconv.Itoa(quantity), http.StatusSeeOther)
}

func (h *Handler) cartCount(r *http.Request) int {
	if h.sessions == nil {
		return 0
	}
	return h.sessions.Current(r).CartQuantity(r.Context())
}

func addedNotice(raw string) string {
	n := common.AtoiDefault(raw, 0)
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("Added %d to cart", n)
}
