package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Migrate creates the tables if they do not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Postgres) Close() {
	s.pool.Close()
}

const conversationColumns = `id::text, session_id, user_id, status, created_at, updated_at`

func scanConversation(row pgx.Row) (*Conversation, error) {
	var c Conversation
	if err := row.Scan(&c.ID, &c.SessionID, &c.UserID, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Postgres) CreateConversation(ctx context.Context, sessionID, userID string) (*Conversation, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO conversations (id, session_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (session_id) DO UPDATE SET session_id = EXCLUDED.session_id
		RETURNING `+conversationColumns,
		uuid.New(), sessionID, userID, StatusActive,
	)
	c, err := scanConversation(row)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

func (s *Postgres) GetBySessionID(ctx context.Context, sessionID string) (*Conversation, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE session_id = $1`, sessionID)
	c, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (s *Postgres) SaveMessage(ctx context.Context, m *Message) error {
	convID, err := uuid.Parse(m.ConversationID)
	if err != nil {
		return fmt.Errorf("save message: conversation %s: %w", m.ConversationID, ErrNotFound)
	}
	id := uuid.New()
	if m.ID != "" {
		if id, err = uuid.Parse(m.ID); err != nil {
			return fmt.Errorf("save message: invalid id %q: %w", m.ID, err)
		}
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	tables := m.Tables
	if tables == nil {
		tables = []string{}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, speaker, text, intent, sql, tables, is_error, error_detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, convID, m.Speaker, m.Text, m.Intent, m.SQL, tables, m.IsError, m.ErrorDetail, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	m.ID = id.String()
	return nil
}

func (s *Postgres) ListMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	convID, err := uuid.Parse(conversationID)
	if err != nil {
		return nil, nil
	}
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, speaker, text, intent, sql, tables, is_error, error_detail, created_at
		FROM (
			SELECT seq, id::text, conversation_id::text, speaker, text, intent, sql, tables, is_error, error_detail, created_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY seq DESC
			LIMIT $2
		) recent
		ORDER BY seq ASC`,
		convID, lim,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Speaker, &m.Text, &m.Intent, &m.SQL,
			&m.Tables, &m.IsError, &m.ErrorDetail, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateStatus(ctx context.Context, conversationID, status string) error {
	convID, err := uuid.Parse(conversationID)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE conversations SET status = $2, updated_at = now() WHERE id = $1`,
		convID, status,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) CreateTicket(ctx context.Context, t *Ticket) error {
	convID, err := uuid.Parse(t.ConversationID)
	if err != nil {
		return fmt.Errorf("create ticket: conversation %s: %w", t.ConversationID, ErrNotFound)
	}
	id := uuid.New()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO escalation_tickets (id, conversation_id, user_id, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, convID, t.UserID, t.Reason, t.Status, t.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("create ticket: conversation %s: %w", t.ConversationID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	t.ID = id.String()
	return nil
}

func (s *Postgres) SaveJobDescription(ctx context.Context, jd *JobDescription) error {
	convID, err := uuid.Parse(jd.ConversationID)
	if err != nil {
		return fmt.Errorf("save job description: conversation %s: %w", jd.ConversationID, ErrNotFound)
	}
	id := uuid.New()
	if jd.CreatedAt.IsZero() {
		jd.CreatedAt = time.Now().UTC()
	}
	fields := jd.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO job_descriptions (id, conversation_id, fields, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, convID, fields, jd.Body, jd.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job description: %w", err)
	}
	jd.ID = id.String()
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
