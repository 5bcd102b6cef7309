package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHandler_HandleHealth(t *testing.T) {
	tests := []struct {
		name     string
		ping     error
		database string
	}{
		{"database up", nil, "connected"},
		{"database down", errors.New("connection refused"), "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(pingFunc(func(context.Context) error { return tt.ping }), "test")
			mux := http.NewServeMux()
			h.Register(mux, func(fn http.HandlerFunc) http.HandlerFunc { return fn })

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var resp struct {
				Success  bool   `json:"success"`
				Database string `json:"database"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !resp.Success || resp.Database != tt.database {
				t.Errorf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestHandler_HandleBanner(t *testing.T) {
	h := NewHandler(pingFunc(func(context.Context) error { return nil }), "1.2.3")
	mux := http.NewServeMux()
	h.Register(mux, func(fn http.HandlerFunc) http.HandlerFunc { return fn })

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", rec.Code)
	}
}
