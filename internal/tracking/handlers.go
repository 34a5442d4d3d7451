package tracking

import (
	"net/http"

	"github.com/noah-isme/storefront-toko/internal/shopapi"
	"github.com/noah-isme/storefront-toko/internal/view"
)

// Handler serves GET /tracking?orderId=&productId=.
type Handler struct {
	Service   *Service
	View      *view.Renderer
	CartCount func(r *http.Request) int
}

func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v, err := h.Service.Track(r.Context(), shopapi.ParseID(q.Get("orderId")), shopapi.ParseID(q.Get("productId")))
	if err != nil {
		h.View.Error(w, r, err)
		return
	}
	page := view.Page{Title: "Tracking Page", Data: v}
	if h.CartCount != nil {
		page.CartCount = h.CartCount(r)
	}
	h.View.Render(w, r, http.StatusOK, "tracking", page)
}
