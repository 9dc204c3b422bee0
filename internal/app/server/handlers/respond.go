package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"convo/internal/core/domain"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps errors to a status category with a generic body. Internal
// diagnostic detail never reaches the client.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrGroupTooSmall),
		errors.Is(err, domain.ErrInvalidGroupID),
		errors.Is(err, domain.ErrInvalidUserID):
		respondJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
	case errors.Is(err, domain.ErrNotGroupMember):
		respondJSON(w, http.StatusForbidden, map[string]string{"message": err.Error()})
	case errors.Is(err, domain.ErrGroupNotFound), errors.Is(err, domain.ErrUserNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"message": err.Error()})
	default:
		respondJSON(w, http.StatusInternalServerError, map[string]string{"message": "server error"})
	}
}
