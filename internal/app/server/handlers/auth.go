package handlers

import (
	"encoding/json"
	"net/http"

	"convo/internal/core/services"
	"convo/internal/platform/logger"
)

type AuthHandler struct {
	userSvc  *services.UserService
	tokenSvc *services.TokenService
}

func NewAuthHandler(u *services.UserService, t *services.TokenService) *AuthHandler {
	return &AuthHandler{userSvc: u, tokenSvc: t}
}

// Login exchanges a stable user id for a bearer token, creating the identity
// row on first sight. How the id was originally established is outside the
// realtime core's scope.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req struct {
		UserID   string `json:"userId"`
		FullName string `json:"fullName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.ErrorContext(r.Context(), "auth handler - login - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	user, err := h.userSvc.EnsureUser(r.Context(), req.UserID, req.FullName)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - login - ensure user failed", "user_id", req.UserID, "err", err)
		respondError(w, err)
		return
	}
	token, err := h.tokenSvc.GenerateToken(user.ID)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - login - generate token failed", "user_id", user.ID)
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}
	log.InfoContext(r.Context(), "auth handler - login - token issued", "user_id", user.ID)
	respondJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"userId":    user.ID,
		"fullName":  user.FullName,
		"createdAt": user.CreatedAt,
	})
}
