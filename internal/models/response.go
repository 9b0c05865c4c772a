package models

import "time"

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// IntentInfo mirrors the classified intent of a turn.
type IntentInfo struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// ChatResponse is the single response shape for every chat outcome.
type ChatResponse struct {
	Answer         string      `json:"answer"`
	ConversationID string      `json:"conversationId,omitempty"`
	Intent         *IntentInfo `json:"intent,omitempty"`
	SQL            string      `json:"sql,omitempty"`
	TablesUsed     []string    `json:"tables_used,omitempty"`
	Insights       string      `json:"insights,omitempty"`
	Error          string      `json:"error,omitempty"`
	Recoverable    *bool       `json:"recoverable,omitempty"`
	Suggestion     string      `json:"suggestion,omitempty"`
	CanEscalate    *bool       `json:"canEscalate,omitempty"`
	ID             string      `json:"id,omitempty"`
	Debug          *DebugInfo  `json:"debug,omitempty"`
}

// DebugInfo is attached only when the request asked for debugMode.
type DebugInfo struct {
	Attempts []AttemptDebug `json:"attempts"`
	Branch   string         `json:"branch"`
}

// AttemptDebug records what one data attempt compiled to.
type AttemptDebug struct {
	Attempt          int            `json:"attempt"`
	SQL              string         `json:"sql,omitempty"`
	Fragments        any            `json:"fragments,omitempty"`
	Filters          any            `json:"filters,omitempty"`
	Table            string         `json:"table,omitempty"`
	TableStrategy    string         `json:"table_strategy,omitempty"`
	Endpoint         string         `json:"endpoint,omitempty"`
	Method           string         `json:"method,omitempty"`
	EndpointStrategy string         `json:"endpoint_strategy,omitempty"`
	Params           string         `json:"params,omitempty"`
	RowCount         int            `json:"row_count,omitempty"`
	Error            string         `json:"error,omitempty"`
	ErrorKind        string         `json:"error_kind,omitempty"`
	Duration         time.Duration  `json:"duration_ns"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// TicketResponse is returned by the escalation endpoint.
type TicketResponse struct {
	Status         string    `json:"status"`
	TicketID       string    `json:"ticket_id"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Bool returns a pointer for the optional flags of ChatResponse.
func Bool(b bool) *bool {
	return &b
}
