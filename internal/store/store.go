package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Conversation statuses.
const (
	StatusActive        = "active"
	StatusAwaitingHuman = "awaiting_human"
	StatusEscalated     = "escalated"
)

// Message speakers.
const (
	SpeakerUser = "user"
	SpeakerBot  = "bot"
)

type Conversation struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Speaker        string    `json:"speaker"`
	Text           string    `json:"text"`
	Intent         string    `json:"intent,omitempty"`
	SQL            string    `json:"sql,omitempty"`
	Tables         []string  `json:"tables,omitempty"`
	IsError        bool      `json:"isError"`
	ErrorDetail    string    `json:"errorDetail,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Ticket struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	UserID         string    `json:"userId,omitempty"`
	Reason         string    `json:"reason"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

type JobDescription struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversationId"`
	Fields         map[string]string `json:"fields"`
	Body           string            `json:"body"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// ConversationStore persists conversations and their append-only message log.
type ConversationStore interface {
	// CreateConversation returns the existing conversation when one is
	// already bound to sessionID.
	CreateConversation(ctx context.Context, sessionID, userID string) (*Conversation, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Conversation, error)
	// SaveMessage assigns ID and CreatedAt when they are empty.
	SaveMessage(ctx context.Context, m *Message) error
	// ListMessages returns the last limit messages oldest first; limit <= 0
	// returns all of them.
	ListMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
	UpdateStatus(ctx context.Context, conversationID, status string) error
}

type TicketStore interface {
	CreateTicket(ctx context.Context, t *Ticket) error
}

type JobDescriptionStore interface {
	SaveJobDescription(ctx context.Context, jd *JobDescription) error
}

// Store is the full persistence surface plus lifecycle.
type Store interface {
	ConversationStore
	TicketStore
	JobDescriptionStore
	Ping(ctx context.Context) error
	Close()
}
