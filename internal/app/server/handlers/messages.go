package handlers

import (
	"encoding/json"
	"net/http"

	"convo/internal/core/domain"
	"convo/internal/core/services"
	"convo/internal/platform/logger"
	"convo/pkg/middleware"
)

type MessageHandler struct {
	delivery *services.DeliveryService
	userSvc  *services.UserService
}

func NewMessageHandler(delivery *services.DeliveryService, userSvc *services.UserService) *MessageHandler {
	return &MessageHandler{delivery: delivery, userSvc: userSvc}
}

// Sidebar lists all other users for the contact list.
func (h *MessageHandler) Sidebar(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	users, err := h.userSvc.Sidebar(r.Context(), userID)
	if err != nil {
		log.ErrorContext(r.Context(), "message handler - sidebar - list failed", "err", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// History returns the full direct conversation with the peer in the path,
// oldest first.
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	peerID := r.PathValue("id")
	msgs, err := h.delivery.DirectHistory(r.Context(), userID, peerID)
	if err != nil {
		log.ErrorContext(r.Context(), "message handler - history - read failed", "peer_id", peerID, "err", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messagePayloads(msgs))
}

// Send persists a direct message to the receiver in the path and returns the
// persisted message. Live delivery is best-effort and not reflected in the
// response.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	receiverID := r.PathValue("id")
	var in services.SendInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	msg, err := h.delivery.SendDirect(r.Context(), userID, receiverID, in)
	if err != nil {
		log.ErrorContext(r.Context(), "message handler - send - failed", "receiver_id", receiverID, "err", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, domain.PayloadFromMessage(msg))
}

func messagePayloads(msgs []domain.Message) []domain.MessagePayload {
	out := make([]domain.MessagePayload, 0, len(msgs))
	for i := range msgs {
		out = append(out, domain.PayloadFromMessage(&msgs[i]))
	}
	return out
}
