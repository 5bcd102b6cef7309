package reviews

import (
	"net/http"

	"github.com/joao-fontenele/bookstore-api/internal/auth"
	"github.com/joao-fontenele/bookstore-api/internal/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleByBook(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ByBook(r.Context(), r.PathValue("bookId"))
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching reviews")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"reviews": reviews})
}

func (h *Handler) HandleByUser(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	reviews, err := h.service.ByUser(r.Context(), user.ID)
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching reviews")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"reviews": reviews})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, err, "Error creating review")
		return
	}

	user, _ := auth.UserFrom(r.Context())
	review, err := h.service.Create(r.Context(), user.ID, req)
	if err != nil {
		httpx.Fail(w, r, err, "Error creating review")
		return
	}

	httpx.Logger(r.Context()).Info("review created", "review_id", review.ID, "book_id", review.BookID)
	httpx.OK(w, r, http.StatusCreated, httpx.Envelope{
		"message": "Review added successfully",
		"review":  review,
	})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, err, "Error updating review")
		return
	}

	user, _ := auth.UserFrom(r.Context())
	review, err := h.service.Update(r.Context(), r.PathValue("id"), user.ID, req)
	if err != nil {
		httpx.Fail(w, r, err, "Error updating review")
		return
	}

	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"message": "Review updated successfully",
		"review":  review,
	})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	if err := h.service.Delete(r.Context(), r.PathValue("id"), user.ID); err != nil {
		httpx.Fail(w, r, err, "Error deleting review")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"message": "Review deleted successfully"})
}

// Register mounts the review routes under /api/reviews.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/reviews/book/{bookId}", wrap(h.HandleByBook))
	mux.HandleFunc("GET /api/reviews/user", wrap(mw.Require(h.HandleByUser)))
	mux.HandleFunc("POST /api/reviews", wrap(mw.Require(h.HandleCreate)))
	mux.HandleFunc("PUT /api/reviews/{id}", wrap(mw.Require(h.HandleUpdate)))
	mux.HandleFunc("DELETE /api/reviews/{id}", wrap(mw.Require(h.HandleDelete)))
}
