package escalation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/askhr/askhr/internal/metrics"
	"github.com/askhr/askhr/internal/store"
)

const TicketStatusOpen = "open"

var ErrReasonRequired = errors.New("escalation reason is required")

// Event is published after a ticket is stored.
type Event struct {
	TicketID       string    `json:"ticket_id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id,omitempty"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}

type Publisher interface {
	Publish(subject string, data any) error
}

// Service opens human-support tickets for conversations.
type Service struct {
	tickets       store.TicketStore
	conversations store.ConversationStore
	publisher     Publisher
	subject       string
}

// NewService returns a Service; publisher may be nil.
func NewService(tickets store.TicketStore, conversations store.ConversationStore, publisher Publisher, subject string) *Service {
	return &Service{tickets: tickets, conversations: conversations, publisher: publisher, subject: subject}
}

// Create stores a ticket, marks the conversation escalated and announces it.
// A failed publish is logged, not returned.
func (s *Service) Create(ctx context.Context, conversationID, userID, reason string) (*store.Ticket, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	t := &store.Ticket{
		ConversationID: conversationID,
		UserID:         userID,
		Reason:         reason,
		Status:         TicketStatusOpen,
	}
	if err := s.tickets.CreateTicket(ctx, t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	if err := s.conversations.UpdateStatus(ctx, conversationID, store.StatusEscalated); err != nil {
		return nil, fmt.Errorf("mark conversation escalated: %w", err)
	}
	metrics.EscalationsTotal.Inc()

	if s.publisher != nil {
		evt := Event{
			TicketID:       t.ID,
			ConversationID: conversationID,
			UserID:         userID,
			Reason:         reason,
			CreatedAt:      t.CreatedAt,
		}
		if err := s.publisher.Publish(s.subject, evt); err != nil {
			log.Warn().Err(err).Str("ticket_id", t.ID).Str("subject", s.subject).Msg("escalation publish failed")
		}
	}

	log.Info().
		Str("ticket_id", t.ID).
		Str("conversation_id", conversationID).
		Msg("escalation created")
	return t, nil
}

// NATSPublisher publishes JSON payloads on a NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url, token string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("askhr"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return p.conn.Publish(subject, payload)
}

// Connected reports the connection state for health checks.
func (p *NATSPublisher) Connected() bool {
	return p.conn.IsConnected()
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
