package orders

import (
	"net/http"

	"github.com/joao-fontenele/bookstore-api/internal/auth"
	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/httpx"
)

const defaultOrderPageSize = 10

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, err, "Error creating order")
		return
	}

	user, _ := auth.UserFrom(r.Context())
	order, err := h.service.PlaceOrder(r.Context(), user.ID, req)
	if err != nil {
		httpx.Fail(w, r, err, "Error creating order")
		return
	}

	httpx.Logger(r.Context()).Info("order placed",
		"order_id", order.ID, "order_number", order.OrderNumber, "total", order.Total.String())
	httpx.OK(w, r, http.StatusCreated, httpx.Envelope{
		"message": "Order created successfully",
		"order":   order,
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	filter := domain.OrderFilter{
		UserID: user.ID,
		Status: domain.OrderStatus(r.URL.Query().Get("status")),
		Page:   httpx.PageFromQuery(r, defaultOrderPageSize),
	}

	orders, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching orders")
		return
	}

	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"orders":     orders,
		"pagination": filter.Page.Paginate(total),
	})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	order, err := h.service.Get(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching order")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"order": order})
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	order, err := h.service.Cancel(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		httpx.Fail(w, r, err, "Error cancelling order")
		return
	}

	httpx.Logger(r.Context()).Info("order cancelled", "order_id", order.ID)
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"message": "Order cancelled successfully",
		"order":   order,
	})
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	stats, err := h.service.Stats(r.Context(), user.ID)
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching stats")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"stats": stats})
}

// Register mounts the customer order routes under /api/orders.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/orders", wrap(mw.Require(h.HandleList)))
	mux.HandleFunc("GET /api/orders/stats", wrap(mw.Require(h.HandleStats)))
	mux.HandleFunc("POST /api/orders/create", wrap(mw.Require(h.HandleCreate)))
	mux.HandleFunc("GET /api/orders/{id}", wrap(mw.Require(h.HandleGet)))
	mux.HandleFunc("PUT /api/orders/{id}/cancel", wrap(mw.Require(h.HandleCancel)))
}
