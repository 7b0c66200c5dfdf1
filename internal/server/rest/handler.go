// Package rest serves the authentication API over HTTP/JSON.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
)

const maxBodyBytes = 1 << 20

// Error kinds reported in the "error" field of failure responses.
const (
	KindDuplicateUser      = "DuplicateUser"
	KindInvalidCredentials = "InvalidCredentials"
	KindUnauthorized       = "Unauthorized"
	KindInvalidRequest     = "InvalidRequest"
	KindServerError        = "ServerError"
)

// AuthService is the part of services.AuthService the handlers need.
type AuthService interface {
	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Authorize(ctx context.Context, token string) (*auth.Claims, error)
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type ProtectedResponse struct {
	Message string       `json:"message"`
	User    *auth.Claims `json:"user"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type Handler struct {
	service AuthService
	logger  logging.Logger
}

func NewHandler(s AuthService, l logging.Logger) *Handler {
	return &Handler{service: s, logger: l}
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorInternal):
			h.serverError(w, r, err)
		case errors.Is(err, common.ErrDuplicateUser):
			writeError(w, http.StatusBadRequest, KindDuplicateUser, "User already exists")
		case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrHashing):
			writeError(w, http.StatusBadRequest, KindInvalidRequest, "Invalid email or password")
		default:
			h.serverError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, TokenResponse{Message: "User registered successfully", Token: token})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, KindInvalidCredentials, "Invalid credentials")
			return
		}
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Message: "Login successful", Token: token})
}

// Protected handles GET /api/protected. RequireToken must run first.
func (h *Handler) Protected(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, KindUnauthorized, "No token provided")
		return
	}
	writeJSON(w, http.StatusOK, ProtectedResponse{Message: "Access granted", User: claims})
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeCredentials(w http.ResponseWriter, r *http.Request) (*CredentialsRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, KindInvalidRequest, "Malformed request body")
		return nil, false
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, KindInvalidRequest, "Email and password are required")
		return nil, false
	}
	return &req, true
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, KindServerError, "Server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, ErrorResponse{Error: kind, Message: msg})
}
