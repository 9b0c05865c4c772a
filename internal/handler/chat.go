package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/askhr/askhr/internal/models"
)

const maxChatBody = 64 << 10

// ChatService answers one chat turn.
type ChatService interface {
	Handle(ctx context.Context, req models.ChatRequest) *models.ChatResponse
}

// ChatHandler handles POST /api/v1/chat
type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Chat always answers 200 with a ChatResponse once the request is well formed;
// pipeline failures are reported inside the body.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var missing []string
	if strings.TrimSpace(req.Query) == "" {
		missing = append(missing, "query is required")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		missing = append(missing, "sessionId is required")
	}
	if len(missing) > 0 {
		models.WriteError(w, http.StatusBadRequest, "invalid request", missing...)
		return
	}

	models.WriteJSON(w, http.StatusOK, h.svc.Handle(r.Context(), req))
}
