package cart

import (
	"net/http"

	"github.com/joao-fontenele/bookstore-api/internal/auth"
	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type itemRequest struct {
	BookID   string `json:"book_id"`
	Quantity *int   `json:"quantity"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	lines, err := h.service.Get(r.Context(), user.ID)
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching cart")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"cart": domain.CartView(lines)})
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, err, "Error adding to cart")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	user, _ := auth.UserFrom(r.Context())
	lines, err := h.service.AddItem(r.Context(), user.ID, req.BookID, quantity)
	if err != nil {
		httpx.Fail(w, r, err, "Error adding to cart")
		return
	}

	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"message": "Item added to cart",
		"cart":    domain.CartView(lines),
	})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, err, "Error updating cart")
		return
	}
	quantity := 0
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	user, _ := auth.UserFrom(r.Context())
	lines, err := h.service.UpdateQuantity(r.Context(), user.ID, req.BookID, quantity)
	if err != nil {
		httpx.Fail(w, r, err, "Error updating cart")
		return
	}

	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"message": "Cart updated",
		"cart":    domain.CartView(lines),
	})
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	if err := h.service.RemoveItem(r.Context(), user.ID, r.PathValue("bookId")); err != nil {
		httpx.Fail(w, r, err, "Error removing from cart")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"message": "Item removed from cart"})
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	if err := h.service.Clear(r.Context(), user.ID); err != nil {
		httpx.Fail(w, r, err, "Error clearing cart")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"message": "Cart cleared"})
}

// Register mounts the cart routes; every one requires a signed-in user.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/cart", wrap(mw.Require(h.HandleGet)))
	mux.HandleFunc("POST /api/cart/add", wrap(mw.Require(h.HandleAdd)))
	mux.HandleFunc("PUT /api/cart/update", wrap(mw.Require(h.HandleUpdate)))
	mux.HandleFunc("DELETE /api/cart/remove/{bookId}", wrap(mw.Require(h.HandleRemove)))
	mux.HandleFunc("DELETE /api/cart/clear", wrap(mw.Require(h.HandleClear)))
}
