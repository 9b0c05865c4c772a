package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store.
type Memory struct {
	mu            sync.Mutex
	conversations map[string]*Conversation // by id
	sessions      map[string]string        // session id -> conversation id
	messages      map[string][]Message
	tickets       []Ticket
	jobs          []JobDescription
}

func NewMemory() *Memory {
	return &Memory{
		conversations: make(map[string]*Conversation),
		sessions:      make(map[string]string),
		messages:      make(map[string][]Message),
	}
}

func (m *Memory) CreateConversation(_ context.Context, sessionID, userID string) (*Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.sessions[sessionID]; ok {
		c := *m.conversations[id]
		return &c, nil
	}
	now := time.Now().UTC()
	c := &Conversation{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.conversations[c.ID] = c
	m.sessions[sessionID] = c.ID
	out := *c
	return &out, nil
}

func (m *Memory) GetBySessionID(_ context.Context, sessionID string) (*Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *m.conversations[id]
	return &c, nil
}

func (m *Memory) SaveMessage(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[msg.ConversationID]; !ok {
		return fmt.Errorf("save message: conversation %s: %w", msg.ConversationID, ErrNotFound)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	cp := *msg
	cp.Tables = append([]string(nil), msg.Tables...)
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], cp)
	return nil
}

func (m *Memory) ListMessages(_ context.Context, conversationID string, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.messages[conversationID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]Message(nil), all...), nil
}

func (m *Memory) UpdateStatus(_ context.Context, conversationID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) CreateTicket(_ context.Context, t *Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[t.ConversationID]; !ok {
		return fmt.Errorf("create ticket: conversation %s: %w", t.ConversationID, ErrNotFound)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.tickets = append(m.tickets, *t)
	return nil
}

func (m *Memory) SaveJobDescription(_ context.Context, jd *JobDescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if jd.ID == "" {
		jd.ID = uuid.NewString()
	}
	if jd.CreatedAt.IsZero() {
		jd.CreatedAt = time.Now().UTC()
	}
	m.jobs = append(m.jobs, *jd)
	return nil
}

// Tickets returns a copy of the stored tickets.
func (m *Memory) Tickets() []Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Ticket(nil), m.tickets...)
}

// JobDescriptions returns a copy of the stored job descriptions.
func (m *Memory) JobDescriptions() []JobDescription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]JobDescription(nil), m.jobs...)
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}
