package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestHandler(upstream string, client *http.Client, limiter Limiter) *http.ServeMux {
	h := NewHandler(NewServiceProxy(upstream, client), limiter, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	h.Register(mux, func(fn http.HandlerFunc) http.HandlerFunc { return fn })
	return mux
}

func TestHandler_HandleAPI(t *testing.T) {
	t.Run("proxies GET with query", func(t *testing.T) {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/books" {
				t.Errorf("expected /api/books, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("sort") != "price-low" {
				t.Errorf("expected sort query, got %q", r.URL.RawQuery)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"success":true,"books":[]}`))
		}))
		defer api.Close()

		mux := newTestHandler(api.URL, api.Client(), nil)
		req := httptest.NewRequest(http.MethodGet, "/api/books?sort=price-low", nil)
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("expected application/json, got %s", rec.Header().Get("Content-Type"))
		}
		if rec.Body.String() != `{"success":true,"books":[]}` {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("proxies POST with body and bearer token", func(t *testing.T) {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"book_id":"b1"}` {
				t.Errorf("unexpected body: %s", body)
			}
			if r.Header.Get("Authorization") != "Bearer tok" {
				t.Errorf("authorization not forwarded: %q", r.Header.Get("Authorization"))
			}
			w.WriteHeader(http.StatusCreated)
		}))
		defer api.Close()

		mux := newTestHandler(api.URL, api.Client(), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/cart/add", strings.NewReader(`{"book_id":"b1"}`))
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Errorf("expected status 201, got %d", rec.Code)
		}
	})

	t.Run("preserves upstream error status", func(t *testing.T) {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"Book not found"}`))
		}))
		defer api.Close()

		mux := newTestHandler(api.URL, api.Client(), nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/unknown", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when api unavailable", func(t *testing.T) {
		mux := newTestHandler("http://localhost:99999", &http.Client{}, nil)
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books", nil))

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}
		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["error"] != "service unavailable" || resp["success"] != false {
			t.Errorf("unexpected response: %v", resp)
		}
	})
}

type countingLimiter struct {
	limit int
	seen  map[string]int
}

func (l *countingLimiter) Allow(_ context.Context, key string) bool {
	l.seen[key]++
	return l.seen[key] <= l.limit
}

func (l *countingLimiter) RetryAfter() time.Duration { return 1500 * time.Millisecond }

func TestHandler_RateLimit(t *testing.T) {
	limiter := &countingLimiter{limit: 1, seen: map[string]int{}}
	h := NewHandler(nil, limiter, slog.New(slog.NewTextHandler(io.Discard, nil)))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	limited := h.RateLimit(next)

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("10.0.0.1:5000"); rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	rec := do("10.0.0.1:5001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "2" {
		t.Errorf("expected Retry-After 2, got %q", rec.Header().Get("Retry-After"))
	}
	if rec := do("10.0.0.2:5000"); rec.Code != http.StatusOK {
		t.Errorf("expected other client to pass, got %d", rec.Code)
	}
	if limiter.seen["10.0.0.1"] != 2 {
		t.Errorf("expected key by ip without port, got %v", limiter.seen)
	}
}
