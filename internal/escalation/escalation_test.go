package escalation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askhr/askhr/internal/escalation"
	"github.com/askhr/askhr/internal/store"
)

type fakePublisher struct {
	subjects []string
	events   []any
	err      error
}

func (f *fakePublisher) Publish(subject string, data any) error {
	f.subjects = append(f.subjects, subject)
	f.events = append(f.events, data)
	return f.err
}

func TestCreateTicket(t *testing.T) {
	ctx := t.Context()
	mem := store.NewMemory()
	conv, err := mem.CreateConversation(ctx, "s-1", "u-1")
	require.NoError(t, err)

	pub := &fakePublisher{}
	svc := escalation.NewService(mem, mem, pub, "askhr.escalation.created")

	tk, err := svc.Create(ctx, conv.ID, "u-1", "  need a person  ")
	require.NoError(t, err)
	assert.NotEmpty(t, tk.ID)
	assert.Equal(t, "need a person", tk.Reason)
	assert.Equal(t, escalation.TicketStatusOpen, tk.Status)

	got, err := mem.GetBySessionID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusEscalated, got.Status)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "askhr.escalation.created", pub.subjects[0])
	evt := pub.events[0].(escalation.Event)
	assert.Equal(t, tk.ID, evt.TicketID)
	assert.Equal(t, conv.ID, evt.ConversationID)
}

func TestCreateTicketPublishFailureIsNotFatal(t *testing.T) {
	ctx := t.Context()
	mem := store.NewMemory()
	conv, err := mem.CreateConversation(ctx, "s-1", "")
	require.NoError(t, err)

	svc := escalation.NewService(mem, mem, &fakePublisher{err: errors.New("nats down")}, "x")
	_, err = svc.Create(ctx, conv.ID, "", "help")
	assert.NoError(t, err)
	assert.Len(t, mem.Tickets(), 1)
}

func TestCreateTicketErrors(t *testing.T) {
	ctx := t.Context()
	mem := store.NewMemory()
	svc := escalation.NewService(mem, mem, nil, "x")

	_, err := svc.Create(ctx, "whatever", "", " ")
	assert.ErrorIs(t, err, escalation.ErrReasonRequired)

	_, err = svc.Create(ctx, "unknown-conversation", "", "help")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
