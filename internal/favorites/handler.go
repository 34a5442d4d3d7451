package favorites

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/storefront-toko/internal/checkout"
	"github.com/noah-isme/storefront-toko/internal/common"
	"github.com/noah-isme/storefront-toko/internal/shopapi"
	"github.com/noah-isme/storefront-toko/internal/view"
)

// Sessions resolves the checkout session bound to a request.
type Sessions interface {
	Current(r *http.Request) *checkout.Session
}

const wishlistTab = "/profile?tab=wishlist"

type Handler struct {
	Svc      *Service
	Sessions Sessions
	View     *view.Renderer
}

// Routes mounts the wishlist mutations.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/cart", h.MoveAllToCart)
	r.Post("/{productId}/cart", h.MoveToCart)
	r.Post("/{productId}/delete", h.Remove)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	sid, _ := common.SessionID(r.Context())
	if err := h.Svc.Remove(r.Context(), sid, shopapi.ParseID(chi.URLParam(r, "productId"))); err != nil {
		h.View.Error(w, r, err)
		return
	}
	h.View.Redirect(w, r, wishlistTab)
}

func (h *Handler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	sid, _ := common.SessionID(r.Context())
	productID := shopapi.ParseID(chi.URLParam(r, "productId"))
	if err := h.Svc.MoveToCart(r.Context(), sid, h.Sessions.Current(r), productID); err != nil {
		h.View.Error(w, r, err)
		return
	}
	h.View.Redirect(w, r, wishlistTab)
}

func (h *Handler) MoveAllToCart(w http.ResponseWriter, r *http.Request) {
	sid, _ := common.SessionID(r.Context())
	moved, err := h.Svc.MoveAllToCart(r.Context(), sid, h.Sessions.Current(r))
	if err != nil {
		h.View.Error(w, r, err)
		return
	}
	if view.WantsJSON(r) {
		common.Data(w, http.StatusOK, map[string]int{"moved": moved})
		return
	}
	http.Redirect(w, r, wishlistTab, http.StatusSeeOther)
}
