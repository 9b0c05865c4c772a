package security

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// TurnAudit is one audited chat turn. Free text is stored only as a hash.
type TurnAudit struct {
	Timestamp      time.Time `json:"@timestamp"`
	ConversationID string    `json:"conversation_id"`
	UserHash       string    `json:"user_hash"`
	Role           string    `json:"role"`
	QueryHash      string    `json:"query_hash"`
	SQLHash        string    `json:"sql_hash,omitempty"`
	Intent         string    `json:"intent"`
	Branch         string    `json:"branch"`
	Table          string    `json:"table,omitempty"`
	Endpoint       string    `json:"endpoint,omitempty"`
	Attempts       int       `json:"attempts"`
	RowCount       int       `json:"row_count"`
	Success        bool      `json:"success"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	DurationMs     int64     `json:"duration_ms"`
}

// AuditSink receives audit records in addition to the log.
type AuditSink interface {
	IndexAudit(ctx context.Context, rec TurnAudit) error
}

// TurnInput carries the raw values of a turn; LogTurn hashes what needs it.
type TurnInput struct {
	ConversationID string
	UserID         string
	Role           string
	Query          string
	SQL            string
	Intent         string
	Branch         string
	Table          string
	Endpoint       string
	Attempts       int
	RowCount       int
	Success        bool
	ErrorKind      string
	Duration       time.Duration
}

// AuditLogger logs security-relevant events with hashed identifiers
type AuditLogger struct {
	enabled bool
	sink    AuditSink
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// WithSink forwards every record to sink as well.
func (a *AuditLogger) WithSink(sink AuditSink) *AuditLogger {
	a.sink = sink
	return a
}

// LogTurn records a completed chat turn and returns the record it wrote.
func (a *AuditLogger) LogTurn(ctx context.Context, in TurnInput) (TurnAudit, bool) {
	if a == nil || !a.enabled {
		return TurnAudit{}, false
	}
	rec := TurnAudit{
		Timestamp:      time.Now().UTC(),
		ConversationID: in.ConversationID,
		UserHash:       shortHash(in.UserID),
		Role:           in.Role,
		QueryHash:      shortHash(in.Query),
		Intent:         in.Intent,
		Branch:         in.Branch,
		Table:          in.Table,
		Endpoint:       in.Endpoint,
		Attempts:       in.Attempts,
		RowCount:       in.RowCount,
		Success:        in.Success,
		ErrorKind:      in.ErrorKind,
		DurationMs:     in.Duration.Milliseconds(),
	}
	if in.SQL != "" {
		rec.SQLHash = shortHash(in.SQL)
	}

	evt := log.Info().
		Str("event", "turn_audit").
		Str("conversation_id", rec.ConversationID).
		Str("user_hash", rec.UserHash).
		Str("role", rec.Role).
		Str("query_hash", rec.QueryHash).
		Str("sql_hash", rec.SQLHash).
		Str("intent", rec.Intent).
		Str("branch", rec.Branch).
		Int("attempts", rec.Attempts).
		Int("row_count", rec.RowCount).
		Int64("duration_ms", rec.DurationMs).
		Bool("success", rec.Success)
	if rec.ErrorKind != "" {
		evt = evt.Str("error_kind", rec.ErrorKind)
	}
	evt.Msg("audit")

	if a.sink != nil {
		if err := a.sink.IndexAudit(ctx, rec); err != nil {
			log.Warn().Err(err).Str("conversation_id", rec.ConversationID).Msg("audit sink write failed")
		}
	}
	return rec, true
}

func shortHash(s string) string {
	if s == "" {
		return ""
	}
	return hashStr(s)[:16]
}

func hashStr(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
