package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/askhr/askhr/internal/escalation"
	"github.com/askhr/askhr/internal/models"
	"github.com/askhr/askhr/internal/store"
)

// Escalator opens a ticket for a conversation.
type Escalator interface {
	Create(ctx context.Context, conversationID, userID, reason string) (*store.Ticket, error)
}

// EscalationHandler handles POST /api/v1/conversations/{conversation_id}/escalate
type EscalationHandler struct {
	svc Escalator
}

func NewEscalationHandler(svc Escalator) *EscalationHandler {
	return &EscalationHandler{svc: svc}
}

func (h *EscalationHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversation_id")

	var req models.EscalationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ticket, err := h.svc.Create(r.Context(), conversationID, req.UserID, req.Reason)
	switch {
	case errors.Is(err, escalation.ErrReasonRequired):
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, store.ErrNotFound):
		models.WriteError(w, http.StatusNotFound, "conversation not found")
		return
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("conversation_id", conversationID).Msg("escalation failed")
		models.WriteError(w, http.StatusInternalServerError, "could not create escalation ticket")
		return
	}

	models.WriteJSON(w, http.StatusCreated, models.TicketResponse{
		Status:         ticket.Status,
		TicketID:       ticket.ID,
		ConversationID: ticket.ConversationID,
		CreatedAt:      ticket.CreatedAt,
	})
}
