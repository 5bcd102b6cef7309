package auth

import (
	"net/http"

	"github.com/joao-fontenele/bookstore-api/internal/httpx"
)

type Handler struct {
	service    *Service
	middleware *Middleware
}

func NewHandler(service *Service, middleware *Middleware) *Handler {
	return &Handler{
		service:    service,
		middleware: middleware,
	}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, err, "Error registering user")
		return
	}

	session, err := h.service.Register(r.Context(), req)
	if err != nil {
		httpx.Fail(w, r, err, "Error registering user")
		return
	}

	httpx.Logger(r.Context()).Info("user registered", "user_id", session.User.ID)
	httpx.OK(w, r, http.StatusCreated, httpx.Envelope{
		"message":      "User registered successfully",
		"access_token": session.Token,
		"user":         session.User,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, err, "Error logging in")
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Fail(w, r, err, "Error logging in")
		return
	}

	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"message":      "Login successful",
		"access_token": session.Token,
		"user":         session.User,
	})
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"user": user})
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, err, "Error updating profile")
		return
	}

	current, _ := UserFrom(r.Context())
	user, err := h.service.UpdateProfile(r.Context(), current.ID, req)
	if err != nil {
		httpx.Fail(w, r, err, "Error updating profile")
		return
	}

	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func (h *Handler) HandleVerifyToken(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"valid": true, "user": user})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, err, "Error changing password")
		return
	}

	user, _ := UserFrom(r.Context())
	if err := h.service.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		httpx.Fail(w, r, err, "Error changing password")
		return
	}

	httpx.Logger(r.Context()).Info("password changed", "user_id", user.ID)
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"message": "Password changed successfully"})
}

// Register mounts the account routes under /api/auth.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	require := h.middleware.Require
	mux.HandleFunc("POST /api/auth/register", wrap(h.HandleRegister))
	mux.HandleFunc("POST /api/auth/login", wrap(h.HandleLogin))
	mux.HandleFunc("GET /api/auth/profile", wrap(require(h.HandleProfile)))
	mux.HandleFunc("PUT /api/auth/profile", wrap(require(h.HandleUpdateProfile)))
	mux.HandleFunc("POST /api/auth/verify-token", wrap(require(h.HandleVerifyToken)))
	mux.HandleFunc("POST /api/auth/change-password", wrap(require(h.HandleChangePassword)))
}
