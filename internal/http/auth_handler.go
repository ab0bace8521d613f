package httpapi

import (
	"context"
	"net/http"

	"collab-events/internal/domain"
	"collab-events/internal/service"

	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*service.AuthTokens, error)
	Login(ctx context.Context, login, password string) (*service.AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, token, refreshToken string) error
}

type AuthHandler struct {
	svc    AuthService
	logger *zap.Logger
}

func NewAuthHandler(svc AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	tokens, err := h.svc.Register(r.Context(), service.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("User registered", zap.Int64("user_id", tokens.UserID))
	writeJSON(w, http.StatusCreated, OkMessage("User registered", tokens))
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	login := req.login()
	if login == "" {
		writeError(w, r, h.logger, domain.Validation("username or email is required"))
		return
	}
	tokens, err := h.svc.Login(r.Context(), login, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage("Login successful", tokens))
}

// Refresh POST /api/auth/refresh
// The refresh token comes from the Authorization header, or the body.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		writeError(w, r, h.logger, domain.Unauthenticated("missing refresh token"))
		return
	}
	access, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"access_token": access}))
}

// Logout POST /api/auth/logout
// An optional body {"refresh_token": "..."} revokes the refresh token too.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, r, h.logger, domain.Unauthenticated("missing bearer token"))
		return
	}
	var req refreshRequest
	if r.ContentLength != 0 {
		if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}
	if err := h.svc.Logout(r.Context(), token, req.RefreshToken); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage[any]("Logged out", nil))
}
