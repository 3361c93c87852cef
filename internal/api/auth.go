package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shortmark/shortmark/internal/auth"
	"github.com/shortmark/shortmark/internal/logger"
)

// authAPIHandler serves registration, login, profile and token refresh.
type authAPIHandler struct {
	svc *auth.Service
	log logger.Logger
}

// registerAuthRoutes registers auth routes on r. limit guards the
// unauthenticated credential endpoints; requireAccess guards /me.
func registerAuthRoutes(r chi.Router, h *authAPIHandler, limit, requireAccess func(http.Handler) http.Handler) {
	r.With(limit).Post("/register", h.Register)
	r.With(limit).Post("/login", h.Login)
	r.With(requireAccess).Get("/me", h.Me)
	r.Post("/token/refresh", h.Refresh)
}

// Register creates an account.
// POST /api/v1/auth/register
func (h *authAPIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeStoreError(w, r, h.log, err)
		return
	}
	h.log.Info("user registered", logger.Int64("user_id", u.ID))
	writeJSON(w, http.StatusCreated, Envelope[UserResponse]{Data: toUserResponse(u)})
}

// Login exchanges email and password for an access/refresh token pair.
// POST /api/v1/auth/login
func (h *authAPIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	creds, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrUnauthorized) {
		writeError(w, r, http.StatusUnauthorized, "Invalid Credential",
			"Credential is invalid, please provide the correct credentials.")
		return
	}
	if err != nil {
		writeStoreError(w, r, h.log, err)
		return
	}

	var resp LoginResponse
	resp.User.Access = creds.Access
	resp.User.Refresh = creds.Refresh
	resp.User.Username = creds.User.Username
	resp.User.Email = creds.User.Email
	writeJSON(w, http.StatusOK, Envelope[LoginResponse]{Data: resp})
}

// Me returns the caller's profile.
// GET /api/v1/auth/me
func (h *authAPIHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, r)
		return
	}
	u, err := h.svc.WhoAmI(r.Context(), userID)
	if err != nil {
		writeStoreError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope[UserResponse]{Data: toUserResponse(u)})
}

// Refresh mints a new access token from the refresh token in the
// Authorization header.
// POST /api/v1/auth/token/refresh
func (h *authAPIHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.BearerToken(r)
	if !ok {
		writeUnauthorized(w, r)
		return
	}
	access, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		writeStoreError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope[RefreshResponse]{Data: RefreshResponse{Access: access}})
}
