package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/user/onboardflow/internal/domain"
)

// AuthService is the slice of the auth use case the handler needs.
type AuthService interface {
	Signup(ctx context.Context, email, password, name string) (*domain.Tenant, string, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// AuthHandler serves founder signup and login.
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "email and password are required"})
		return
	}

	tenant, sessionToken, err := h.auth.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"token":  sessionToken,
		"apiKey": tenant.APIKey,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sessionToken, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"token": sessionToken})
}
