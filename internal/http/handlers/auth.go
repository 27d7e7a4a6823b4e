package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/reward-auth/internal/http/respond"
	"github.com/hongminglow/reward-auth/internal/models"
	"github.com/hongminglow/reward-auth/internal/models/dto"
)

// Authenticator is the auth engine as seen by HTTP.
type Authenticator interface {
	Login(ctx context.Context, identity, secret string) (string, error)
	SignUp(ctx context.Context, identity, secret, role, recommend string) (models.User, error)
}

// AuthHandler owns the signup and login endpoints.
type AuthHandler struct {
	svc    Authenticator
	logger *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(svc Authenticator, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/signup", h.handleSignUp)
	mux.HandleFunc("/login", h.handleLogin)
}

func (h *AuthHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.SignUpRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.ErrBadPayload.Error())
		return
	}

	created, err := h.svc.SignUp(r.Context(), req.Identity, req.Secret, strings.TrimSpace(req.Role), req.Recommend)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "user created successfully", created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.LoginRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.ErrBadPayload.Error())
		return
	}

	token, err := h.svc.Login(r.Context(), req.Identity, req.Secret)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token})
}
