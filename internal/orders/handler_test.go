package orders

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joao-fontenele/bookstore-api/internal/auth"
	"github.com/joao-fontenele/bookstore-api/internal/domain"
)

func newTestMux(svc *Service) *http.ServeMux {
	h := NewHandler(svc)
	mux := http.NewServeMux()
	asUser := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := &domain.User{ID: r.Header.Get("X-Test-User")}
			next(w, r.WithContext(auth.WithUser(r.Context(), user)))
		}
	}
	mux.HandleFunc("POST /api/orders/create", asUser(h.HandleCreate))
	mux.HandleFunc("GET /api/orders/{id}", asUser(h.HandleGet))
	mux.HandleFunc("PUT /api/orders/{id}/cancel", asUser(h.HandleCancel))
	return mux
}

func TestHandler_HandleCreate(t *testing.T) {
	t.Run("returns the created order", func(t *testing.T) {
		svc, store, _ := newTestService()
		store.carts["u1"] = []cartEntry{{"a", 2}, {"b", 1}}
		mux := newTestMux(svc)

		body := `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","phone":"","address":"1 Main St","city":"London","postalCode":"N1","paymentMethod":"cod"}`
		req := httptest.NewRequest(http.MethodPost, "/api/orders/create", strings.NewReader(body))
		req.Header.Set("X-Test-User", "u1")
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Success bool `json:"success"`
			Order   struct {
				Total    json.Number `json:"total"`
				Shipping json.Number `json:"shipping"`
				Status   string      `json:"status"`
				Items    []any       `json:"items"`
			} `json:"order"`
		}
		dec := json.NewDecoder(rec.Body)
		dec.UseNumber()
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !resp.Success || resp.Order.Status != "pending" || len(resp.Order.Items) != 2 {
			t.Errorf("unexpected response: %+v", resp)
		}
		if resp.Order.Total.String() != "59.4" {
			t.Errorf("expected total 59.4, got %s", resp.Order.Total)
		}
		if resp.Order.Shipping.String() != "0" {
			t.Errorf("expected free shipping, got %s", resp.Order.Shipping)
		}
	})

	t.Run("empty cart is a 400", func(t *testing.T) {
		svc, _, _ := newTestService()
		mux := newTestMux(svc)

		body := `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","address":"1 Main St","city":"London","postalCode":"N1"}`
		req := httptest.NewRequest(http.MethodPost, "/api/orders/create", strings.NewReader(body))
		req.Header.Set("X-Test-User", "u1")
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"error":"Cart is empty"`) {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})
}

func TestHandler_HandleCancel(t *testing.T) {
	svc, store, _ := newTestService()
	order := placeOrder(t, svc, store, "u1", cartEntry{"a", 1})
	mux := newTestMux(svc)

	tests := []struct {
		name       string
		user       string
		path       string
		wantStatus int
	}{
		{"not the owner", "u2", "/api/orders/" + order.ID + "/cancel", http.StatusForbidden},
		{"unknown order", "u1", "/api/orders/missing/cancel", http.StatusNotFound},
		{"owner cancels", "u1", "/api/orders/" + order.ID + "/cancel", http.StatusOK},
		{"second cancel", "u1", "/api/orders/" + order.ID + "/cancel", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, tt.path, nil)
			req.Header.Set("X-Test-User", tt.user)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}
