package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"convo/internal/core/domain"
	"convo/internal/core/services"
	"convo/internal/platform/logger"
	"convo/pkg/middleware"
)

type GroupHandler struct {
	groupSvc *services.GroupService
	delivery *services.DeliveryService
}

func NewGroupHandler(groupSvc *services.GroupService, delivery *services.DeliveryService) *GroupHandler {
	return &GroupHandler{groupSvc: groupSvc, delivery: delivery}
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	group, err := h.groupSvc.Create(r.Context(), userID, req.Name, req.Members)
	if err != nil {
		log.ErrorContext(r.Context(), "group handler - create - failed", "err", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, domain.PayloadFromGroup(group))
}

func (h *GroupHandler) MyGroups(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	groups, err := h.groupSvc.ListByMember(r.Context(), userID)
	if err != nil {
		log.ErrorContext(r.Context(), "group handler - my groups - list failed", "err", err)
		respondError(w, err)
		return
	}
	out := make([]domain.GroupPayload, 0, len(groups))
	for i := range groups {
		out = append(out, domain.PayloadFromGroup(&groups[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *GroupHandler) History(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	if _, ok := middleware.UserID(r.Context()); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	groupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, domain.ErrInvalidGroupID)
		return
	}
	msgs, err := h.delivery.GroupHistory(r.Context(), groupID)
	if err != nil {
		log.ErrorContext(r.Context(), "group handler - history - read failed", "group_id", groupID, "err", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messagePayloads(msgs))
}

func (h *GroupHandler) Send(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	groupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, domain.ErrInvalidGroupID)
		return
	}
	var in services.SendInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	msg, err := h.delivery.SendGroup(r.Context(), userID, groupID, in)
	if err != nil {
		log.ErrorContext(r.Context(), "group handler - send - failed", "group_id", groupID, "err", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, domain.PayloadFromMessage(msg))
}

func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	groupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, domain.ErrInvalidGroupID)
		return
	}
	if err := h.groupSvc.Leave(r.Context(), groupID, userID); err != nil {
		log.ErrorContext(r.Context(), "group handler - leave - failed", "group_id", groupID, "err", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "left group"})
}
