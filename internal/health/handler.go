package health

import (
	"context"
	"net/http"
	"time"

	"github.com/joao-fontenele/bookstore-api/internal/httpx"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	db      Pinger
	version string
	now     func() time.Time
}

func NewHandler(db Pinger, version string) *Handler {
	return &Handler{db: db, version: version, now: time.Now}
}

// HandleHealth always answers 200; the database field tells whether the
// API can currently reach Postgres.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	database := "connected"
	if err := h.db.PingContext(ctx); err != nil {
		httpx.Logger(r.Context()).Warn("database ping failed", "error", err)
		database = "disconnected"
	}

	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"message":   "Bookstore API is running",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"database":  database,
	})
}

func (h *Handler) HandleBanner(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, r, http.StatusOK, httpx.Envelope{
		"message": "Welcome to the Bookstore API",
		"version": h.version,
		"endpoints": map[string]string{
			"health":  "/api/health",
			"auth":    "/api/auth",
			"books":   "/api/books",
			"cart":    "/api/cart",
			"orders":  "/api/orders",
			"reviews": "/api/reviews",
			"admin":   "/api/admin",
		},
	})
}

func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/health", wrap(h.HandleHealth))
	mux.HandleFunc("GET /{$}", wrap(h.HandleBanner))
}
