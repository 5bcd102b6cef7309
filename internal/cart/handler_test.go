package cart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joao-fontenele/bookstore-api/internal/auth"
	"github.com/joao-fontenele/bookstore-api/internal/domain"
)

func withUser(r *http.Request) *http.Request {
	return r.WithContext(auth.WithUser(r.Context(), &domain.User{ID: "u1"}))
}

func TestHandler_HandleAdd(t *testing.T) {
	t.Run("defaults quantity to one and returns the cart", func(t *testing.T) {
		store := newFakeStore(testBooks())
		handler := NewHandler(NewService(store, store.books))

		req := withUser(httptest.NewRequest(http.MethodPost, "/api/cart/add", strings.NewReader(`{"book_id":"b1"}`)))
		rec := httptest.NewRecorder()

		handler.HandleAdd(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Success bool                  `json:"success"`
			Cart    []domain.CartItemView `json:"cart"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !body.Success || len(body.Cart) != 1 {
			t.Fatalf("unexpected body: %+v", body)
		}
		if body.Cart[0].ID != "b1" || body.Cart[0].Quantity != 1 || body.Cart[0].Stock != 10 {
			t.Errorf("unexpected line: %+v", body.Cart[0])
		}
	})

	t.Run("explicit zero quantity is rejected", func(t *testing.T) {
		store := newFakeStore(testBooks())
		handler := NewHandler(NewService(store, store.books))

		req := withUser(httptest.NewRequest(http.MethodPost, "/api/cart/add", strings.NewReader(`{"book_id":"b1","quantity":0}`)))
		rec := httptest.NewRecorder()

		handler.HandleAdd(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("unknown book is 404", func(t *testing.T) {
		store := newFakeStore(testBooks())
		handler := NewHandler(NewService(store, store.books))

		req := withUser(httptest.NewRequest(http.MethodPost, "/api/cart/add", strings.NewReader(`{"book_id":"nope"}`)))
		rec := httptest.NewRecorder()

		handler.HandleAdd(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Book not found") {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})
}

func TestHandler_HandleUpdate(t *testing.T) {
	store := newFakeStore(testBooks())
	handler := NewHandler(NewService(store, store.books))

	req := withUser(httptest.NewRequest(http.MethodPut, "/api/cart/update", strings.NewReader(`{"book_id":"b1","quantity":2}`)))
	rec := httptest.NewRecorder()

	handler.HandleUpdate(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Item not found in cart") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_HandleRemove(t *testing.T) {
	store := newFakeStore(testBooks())
	handler := NewHandler(NewService(store, store.books))
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/cart/remove/{bookId}", handler.HandleRemove)

	req := withUser(httptest.NewRequest(http.MethodDelete, "/api/cart/remove/b1", nil))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200 for absent item, got %d", rec.Code)
	}
}
