package models

import "strings"

// HistoryMessage is one prior turn supplied by the client.
type HistoryMessage struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// ChatRequest for POST /api/v1/chat
type ChatRequest struct {
	Query               string           `json:"query"`
	SessionID           string           `json:"sessionId"`
	UserID              string           `json:"userId,omitempty"`
	Role                string           `json:"role,omitempty"`
	ConversationHistory []HistoryMessage `json:"conversationHistory,omitempty"`
	DebugMode           bool             `json:"debugMode,omitempty"`
}

func (r *ChatRequest) SetDefaults(defaultRole string) {
	r.Query = strings.TrimSpace(r.Query)
	r.SessionID = strings.TrimSpace(r.SessionID)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	if r.Role == "" {
		r.Role = defaultRole
	}
}

// EscalationRequest for POST /api/v1/conversations/{conversation_id}/escalate
type EscalationRequest struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

// CompileRequest for POST /api/v1/catalog/compile
type CompileRequest struct {
	SQL   string `json:"sql"`
	Query string `json:"query"`
}
