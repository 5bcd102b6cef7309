package gateway

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/joao-fontenele/bookstore-api/internal/httpx"
)

// Limiter decides whether a client may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
	RetryAfter() time.Duration
}

type Handler struct {
	api     *ServiceProxy
	limiter Limiter
	logger  *slog.Logger
}

// NewHandler proxies to api. A nil limiter disables rate limiting.
func NewHandler(api *ServiceProxy, limiter Limiter, logger *slog.Logger) *Handler {
	return &Handler{
		api:     api,
		limiter: limiter,
		logger:  logger,
	}
}

func (h *Handler) HandleAPI(w http.ResponseWriter, r *http.Request) {
	resp, err := h.api.ForwardRequest(r.Context(), r, r.URL.Path)
	if err != nil {
		httpx.Logger(r.Context()).Error("failed to forward request", "error", err, "path", r.URL.Path)
		httpx.WriteError(w, r, http.StatusBadGateway, "service unavailable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("failed to copy response body", "error", err)
	}
}

// RateLimit answers 429 once the client IP exhausts its window.
func (h *Handler) RateLimit(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientIP(r)
		if !h.limiter.Allow(r.Context(), ip) {
			httpx.Logger(r.Context()).Warn("rate limited", "client_ip", ip, "path", r.URL.Path)
			seconds := int(h.limiter.RetryAfter().Round(time.Second) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
			httpx.WriteError(w, r, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/", wrap(h.HandleAPI))
}
