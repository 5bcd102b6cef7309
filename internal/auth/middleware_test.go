package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
)

type stubAuthenticator map[string]*domain.User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, domain.Unauthorized("Invalid token")
}

func TestMiddleware(t *testing.T) {
	mw := NewMiddleware(stubAuthenticator{
		"user-token":  {ID: "u1", Role: domain.RoleUser},
		"admin-token": {ID: "a1", Role: domain.RoleAdmin},
	})

	ok := func(w http.ResponseWriter, r *http.Request) {
		user, found := UserFrom(r.Context())
		if !found {
			t.Error("expected user in context")
			return
		}
		_, _ = w.Write([]byte(user.ID))
	}

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		header     string
		wantStatus int
		wantBody   string
	}{
		{"missing token", mw.Require(ok), "", http.StatusUnauthorized, "Access denied. No token provided"},
		{"wrong scheme", mw.Require(ok), "Basic user-token", http.StatusUnauthorized, "Access denied. No token provided"},
		{"invalid token", mw.Require(ok), "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"valid token", mw.Require(ok), "Bearer user-token", http.StatusOK, ""},
		{"admin route as user", mw.RequireAdmin(ok), "Bearer user-token", http.StatusForbidden, "Access denied. Admin only"},
		{"admin route as admin", mw.RequireAdmin(ok), "bearer admin-token", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			tt.handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantBody == "" {
				return
			}
			var body map[string]any
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["success"] != false {
				t.Errorf("expected success=false, got %v", body["success"])
			}
			if body["error"] != tt.wantBody {
				t.Errorf("expected error %q, got %v", tt.wantBody, body["error"])
			}
		})
	}
}
