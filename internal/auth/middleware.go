package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/httpx"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Middleware guards routes that need a signed-in user.
type Middleware struct {
	auth Authenticator
}

func NewMiddleware(auth Authenticator) *Middleware {
	return &Middleware{auth: auth}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Require rejects requests without a valid bearer token with 401.
func (m *Middleware) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.Fail(w, r, domain.Unauthorized("Access denied. No token provided"), "Authentication failed")
			return
		}
		user, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			httpx.Fail(w, r, err, "Authentication failed")
			return
		}
		ctx := WithUser(r.Context(), user)
		ctx = httpx.WithLogger(ctx, httpx.Logger(ctx).With("user_id", user.ID))
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin is Require plus a 403 for non-admin users.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.Require(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFrom(r.Context())
		if !user.IsAdmin() {
			httpx.WriteError(w, r, http.StatusForbidden, "Access denied. Admin only")
			return
		}
		next(w, r)
	})
}
