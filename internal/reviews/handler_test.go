package reviews

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joao-fontenele/bookstore-api/internal/auth"
	"github.com/joao-fontenele/bookstore-api/internal/domain"
)

func asUser(r *http.Request, id string) *http.Request {
	return r.WithContext(auth.WithUser(r.Context(), &domain.User{ID: id}))
}

func TestHandler_HandleCreate(t *testing.T) {
	t.Run("creates review and updates the book aggregate", func(t *testing.T) {
		svc, _, books := newTestService()
		handler := NewHandler(svc)

		req := asUser(httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(`{"book_id":"b1","rating":4,"comment":"Loved it"}`)), "u1")
		rec := httptest.NewRecorder()

		handler.HandleCreate(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Success bool          `json:"success"`
			Review  domain.Review `json:"review"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !body.Success || body.Review.Rating != 4 {
			t.Errorf("unexpected body: %+v", body)
		}
		if books["b1"].Rating != 4 || books["b1"].ReviewCount != 1 {
			t.Errorf("expected aggregate 4/1, got %v/%d", books["b1"].Rating, books["b1"].ReviewCount)
		}
	})

	t.Run("duplicate review is 400", func(t *testing.T) {
		svc, _, _ := newTestService()
		review(t, svc, "u1", 5)
		handler := NewHandler(svc)

		req := asUser(httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(`{"book_id":"b1","rating":1,"comment":"again"}`)), "u1")
		rec := httptest.NewRecorder()

		handler.HandleCreate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "already reviewed") {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("invalid rating is 400", func(t *testing.T) {
		svc, reviews, _ := newTestService()
		handler := NewHandler(svc)

		req := asUser(httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(`{"book_id":"b1","rating":9,"comment":"x"}`)), "u1")
		rec := httptest.NewRecorder()

		handler.HandleCreate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if len(reviews.byID) != 0 {
			t.Errorf("expected no review to be stored")
		}
	})
}

func TestHandler_HandleDelete(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		id     func(rv *domain.Review) string
		status int
	}{
		{"owner deletes", "u1", func(rv *domain.Review) string { return rv.ID }, http.StatusOK},
		{"other user is forbidden", "u2", func(rv *domain.Review) string { return rv.ID }, http.StatusForbidden},
		{"missing review", "u1", func(*domain.Review) string { return "missing" }, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			rv := review(t, svc, "u1", 3)
			handler := NewHandler(svc)

			req := httptest.NewRequest(http.MethodDelete, "/api/reviews/"+tt.id(rv), nil)
			req.SetPathValue("id", tt.id(rv))
			rec := httptest.NewRecorder()

			handler.HandleDelete(rec, asUser(req, tt.userID))

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}
