package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/askhr/askhr/internal/catalog"
	"github.com/askhr/askhr/internal/config"
	"github.com/askhr/askhr/internal/intent"
	"github.com/askhr/askhr/internal/llm"
	"github.com/askhr/askhr/internal/metrics"
	"github.com/askhr/askhr/internal/models"
	"github.com/askhr/askhr/internal/planner"
	"github.com/askhr/askhr/internal/query"
	"github.com/askhr/askhr/internal/security"
	"github.com/askhr/askhr/internal/service"
	"github.com/askhr/askhr/internal/store"
)

// Branch names used in metrics, audit records and debug output.
const (
	BranchGuard  = "guard"
	BranchAction = "action"
	BranchRoute  = "route"
	BranchData   = "data"
	BranchSetup  = "setup"
)

// Classifier labels a message.
type Classifier interface {
	Classify(ctx context.Context, text string) intent.Intent
}

// Executor runs a resolved endpoint.
type Executor interface {
	Execute(ctx context.Context, ep catalog.Endpoint, params query.Params, fallbackBody any) (*service.Result, error)
}

// Options are the tunables of a ChatService.
type Options struct {
	Model             string
	Temperature       float64
	MaxAttempts       int
	HistoryTurns      int
	InsightSampleRows int
	DefaultRole       string
}

// Deps are the collaborators of a ChatService.
type Deps struct {
	LLM             llm.Completer
	Classifier      Classifier
	Policy          intent.Policy
	PromptValidator *security.PromptValidator
	AccessChecker   *security.AccessChecker
	DataMasker      *security.DataMasker // nil disables masking
	AuditLogger     *security.AuditLogger
	Planner         *planner.Planner
	Executor        Executor
	Conversations   store.ConversationStore
	JobDescriptions store.JobDescriptionStore
}

// ChatService runs one chat turn from intent classification to response.
// It holds no per-request state.
type ChatService struct {
	deps   Deps
	opts   Options
	action *JobDescriptionAction
	group  singleflight.Group
}

func NewChatService(deps Deps, opts Options) *ChatService {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.MaxAttempts > config.MaxAttemptsLimit {
		opts.MaxAttempts = config.MaxAttemptsLimit
	}
	if opts.InsightSampleRows < 1 {
		opts.InsightSampleRows = 20
	}
	if deps.PromptValidator == nil {
		deps.PromptValidator = security.NewPromptValidator()
	}
	if deps.AccessChecker == nil {
		deps.AccessChecker = security.NewAccessChecker(nil)
	}
	return &ChatService{
		deps:   deps,
		opts:   opts,
		action: NewJobDescriptionAction(deps.LLM, opts.Model, opts.Temperature, deps.JobDescriptions),
	}
}

// turn is the per-request state of Handle.
type turn struct {
	req      models.ChatRequest
	conv     *store.Conversation
	intent   intent.Intent
	history  []llm.Message
	attempts []models.AttemptDebug
	branch   string
	sql      string
	table    string
	endpoint string
	rows     int
	outcome  string
	errKind  Kind
	start    time.Time
	log      zerolog.Logger
}

// Handle always returns a response; collaborator failures become answers.
func (s *ChatService) Handle(ctx context.Context, req models.ChatRequest) *models.ChatResponse {
	req.SetDefaults(s.opts.DefaultRole)
	t := &turn{
		req:   req,
		start: time.Now(),
		log:   log.With().Str("session_id", req.SessionID).Logger(),
	}

	conv, err := s.ensureConversation(ctx, req.SessionID, req.UserID)
	if err != nil {
		t.branch = BranchSetup
		t.log.Error().Err(err).Msg("ensure conversation failed")
		metrics.ChatTurnsTotal.WithLabelValues(BranchSetup, "error").Inc()
		return &models.ChatResponse{
			Answer:      "I could not start this conversation. Please try again.",
			Error:       err.Error(),
			Recoverable: models.Bool(true),
			CanEscalate: models.Bool(false),
		}
	}
	t.conv = conv
	t.log = t.log.With().Str("conversation_id", conv.ID).Logger()

	// history first so the current message is not part of it
	t.history = s.history(ctx, t)
	s.saveMessage(ctx, t, &store.Message{Speaker: store.SpeakerUser, Text: req.Query})

	t.intent = s.deps.Classifier.Classify(ctx, req.Query)
	t.log.Debug().
		Str("intent", string(t.intent.Tag)).
		Float64("confidence", t.intent.Confidence).
		Msg("intent classified")

	var resp *models.ChatResponse
	switch {
	case !s.gate(t):
		resp = s.reject(ctx, t)
	case s.deps.Policy.ShouldRouteToAction(t.intent):
		t.branch = BranchAction
		resp = s.runAction(ctx, t)
	case s.deps.Policy.ShouldRouteToHuman(t.intent):
		t.branch = BranchRoute
		resp = s.routeToHuman(ctx, t)
	default:
		t.branch = BranchData
		resp = s.runData(ctx, t)
	}

	resp.ConversationID = conv.ID
	resp.Intent = &models.IntentInfo{
		Intent:     string(t.intent.Tag),
		Confidence: t.intent.Confidence,
		Reasoning:  t.intent.Reasoning,
	}
	if req.DebugMode {
		resp.Debug = &models.DebugInfo{Attempts: t.attempts, Branch: t.branch}
		if resp.Debug.Attempts == nil {
			resp.Debug.Attempts = []models.AttemptDebug{}
		}
	}

	s.finish(ctx, t)
	return resp
}

func (s *ChatService) ensureConversation(ctx context.Context, sessionID, userID string) (*store.Conversation, error) {
	v, err, _ := s.group.Do(sessionID, func() (any, error) {
		// shared by every caller for this session
		ctx := context.WithoutCancel(ctx)
		c, err := s.deps.Conversations.GetBySessionID(ctx, sessionID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("lookup conversation: %w", err)
		}
		c, err = s.deps.Conversations.CreateConversation(ctx, sessionID, userID)
		if err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*store.Conversation), nil
}

func (s *ChatService) history(ctx context.Context, t *turn) []llm.Message {
	if len(t.req.ConversationHistory) > 0 {
		out := make([]llm.Message, 0, len(t.req.ConversationHistory))
		for _, h := range t.req.ConversationHistory {
			role := llm.RoleUser
			if strings.EqualFold(h.Role, llm.RoleAssistant) || strings.EqualFold(h.Role, store.SpeakerBot) {
				role = llm.RoleAssistant
			}
			if strings.TrimSpace(h.Content) != "" {
				out = append(out, llm.Message{Role: role, Content: h.Content})
			}
		}
		return out
	}
	if s.opts.HistoryTurns <= 0 {
		return nil
	}
	msgs, err := s.deps.Conversations.ListMessages(ctx, t.conv.ID, s.opts.HistoryTurns)
	if err != nil {
		t.log.Warn().Err(err).Msg("load history failed")
		return nil
	}
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.IsError {
			continue
		}
		role := llm.RoleUser
		if m.Speaker == store.SpeakerBot {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Text})
	}
	return out
}

// saveMessage appends to the conversation log. Persistence failures are
// logged and do not change the response.
func (s *ChatService) saveMessage(ctx context.Context, t *turn, m *store.Message) {
	m.ConversationID = t.conv.ID
	if m.Intent == "" && t.intent.Tag != "" {
		m.Intent = string(t.intent.Tag)
	}
	if err := s.deps.Conversations.SaveMessage(ctx, m); err != nil {
		t.log.Warn().Err(err).Str("speaker", m.Speaker).Msg("save message failed")
	}
}

// gate runs the content scan and then the role check.
func (s *ChatService) gate(t *turn) bool {
	t.branch = BranchGuard
	if res := s.deps.PromptValidator.Sanitize(t.req.Query); !res.IsClean {
		t.attempts = append(t.attempts, models.AttemptDebug{
			Error:     strings.Join(res.Threats, ", "),
			ErrorKind: string(KindGuardedRejection),
		})
		return false
	}
	if res := s.deps.AccessChecker.CheckAccess(t.req.Query, t.req.Role); !res.Safe {
		t.attempts = append(t.attempts, models.AttemptDebug{
			Error:     res.Reason,
			ErrorKind: string(KindGuardedRejection),
		})
		return false
	}
	return true
}

func (s *ChatService) reject(ctx context.Context, t *turn) *models.ChatResponse {
	reasons := make([]string, 0, len(t.attempts))
	for _, a := range t.attempts {
		reasons = append(reasons, a.Error)
	}
	perr := guarded(reasons)
	t.log.Warn().Strs("reasons", reasons).Str("role", t.req.Role).Msg("request rejected by safety gate")

	answer := "I can't help with that request."
	if len(reasons) > 0 {
		answer = "I can't help with that request: " + strings.Join(reasons, "; ") + "."
	}
	s.saveMessage(ctx, t, &store.Message{
		Speaker:     store.SpeakerBot,
		Text:        answer,
		IsError:     true,
		ErrorDetail: perr.Error(),
	})
	t.outcome, t.errKind = "rejected", perr.Kind
	return &models.ChatResponse{
		Answer:      answer,
		Error:       perr.Message,
		Recoverable: models.Bool(false),
		Suggestion:  perr.Suggestion,
		CanEscalate: models.Bool(true),
	}
}

func (s *ChatService) runAction(ctx context.Context, t *turn) *models.ChatResponse {
	res, err := s.action.Run(ctx, t.conv.ID, t.req.Query)
	if err != nil {
		return s.fail(ctx, t, classify(KindUnknown, err))
	}
	s.saveMessage(ctx, t, &store.Message{Speaker: store.SpeakerBot, Text: res.Answer})

	if len(res.Missing) > 0 {
		t.outcome = "incomplete"
		return &models.ChatResponse{
			Answer:      res.Answer,
			Recoverable: models.Bool(true),
			Suggestion:  "Provide: " + strings.Join(res.Missing, ", "),
		}
	}
	t.outcome = "success"
	return &models.ChatResponse{Answer: res.Answer, ID: res.ID}
}

func (s *ChatService) routeToHuman(ctx context.Context, t *turn) *models.ChatResponse {
	if err := s.deps.Conversations.UpdateStatus(ctx, t.conv.ID, store.StatusAwaitingHuman); err != nil {
		t.log.Warn().Err(err).Msg("mark conversation awaiting human failed")
	}
	answer := "I've noted your message for the HR team. You can escalate this conversation to a person at any time."
	s.saveMessage(ctx, t, &store.Message{Speaker: store.SpeakerBot, Text: answer})
	t.outcome = "routed"
	return &models.ChatResponse{
		Answer:      answer,
		Recoverable: models.Bool(true),
		Suggestion:  "Use escalate to open a ticket with HR.",
		CanEscalate: models.Bool(true),
	}
}

type attemptResult struct {
	plan    *planner.Plan
	rows    []any
	insight string
}

func (s *ChatService) runData(ctx context.Context, t *turn) *models.ChatResponse {
	var last *PipelineError
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		res, perr := s.attempt(ctx, t, attempt, last)
		if perr == nil {
			metrics.PipelineAttemptsTotal.WithLabelValues("success").Inc()
			return s.succeed(ctx, t, res)
		}
		metrics.PipelineAttemptsTotal.WithLabelValues(string(perr.Kind)).Inc()
		t.log.Warn().
			Int("attempt", attempt).
			Str("kind", string(perr.Kind)).
			Bool("retryable", perr.Retryable).
			Str("details", perr.Details).
			Msg("data attempt failed")
		last = perr
		if !perr.Retryable {
			break
		}
	}
	return s.fail(ctx, t, last)
}

// attempt runs generate, validate, plan, execute and summarize once.
func (s *ChatService) attempt(ctx context.Context, t *turn, n int, prev *PipelineError) (*attemptResult, *PipelineError) {
	started := time.Now()
	dbg := models.AttemptDebug{Attempt: n}
	defer func() {
		dbg.Duration = time.Since(started)
		t.attempts = append(t.attempts, dbg)
	}()
	failed := func(perr *PipelineError) (*attemptResult, *PipelineError) {
		dbg.Error = perr.Message
		dbg.ErrorKind = string(perr.Kind)
		return nil, perr
	}

	sql, err := s.generateSQL(ctx, t, prev)
	if err != nil {
		return failed(classify(KindGenerationFailed, err))
	}
	dbg.SQL = sql
	t.sql = sql

	if !security.ValidateSQL(sql) {
		return failed(classify(KindUnsafeSQL, errors.New(s.sqlRejection(sql))))
	}

	plan, err := s.deps.Planner.Plan(sql, t.req.Query)
	if plan != nil {
		dbg.Fragments = plan.Fragments
		dbg.Filters = plan.Filters
	}
	if err != nil {
		return failed(classify(KindTableNotResolved, err))
	}
	dbg.Table = plan.Table.Table
	dbg.TableStrategy = plan.Table.Strategy
	dbg.Endpoint = plan.Endpoint.Endpoint.URL
	dbg.Method = plan.Endpoint.Endpoint.Method
	dbg.EndpointStrategy = plan.Endpoint.Strategy
	dbg.Params = plan.Params.Redacted()
	t.table = plan.Table.Table
	t.endpoint = plan.Endpoint.Endpoint.URL

	result, err := s.deps.Executor.Execute(ctx, plan.Endpoint.Endpoint, plan.Params, plan.FallbackBody)
	if err != nil {
		return failed(classify(KindExecutionFailed, err))
	}
	rows := s.deps.DataMasker.MaskRows(result.Rows)
	dbg.RowCount = len(rows)
	dbg.Extra = map[string]any{"envelope": result.Envelope.Kind.String(), "status": result.StatusCode}
	t.rows = len(rows)

	insight, err := s.insight(ctx, t, plan, rows)
	if err != nil {
		return failed(classify(KindGenerationFailed, err))
	}
	return &attemptResult{plan: plan, rows: rows, insight: insight}, nil
}

func (s *ChatService) sqlRejection(sql string) string {
	return security.NewSQLValidator().Validate(sql)
}

func (s *ChatService) generateSQL(ctx context.Context, t *turn, prev *PipelineError) (string, error) {
	msgs := make([]llm.Message, 0, len(t.history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: sqlSystemPrompt})
	msgs = append(msgs, t.history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: t.req.Query + retryHint(prev)})

	out, err := s.deps.LLM.Complete(llm.WithPurpose(ctx, "sql"), llm.Request{
		Model:       s.opts.Model,
		Messages:    msgs,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return "", err
	}
	sql := extractSQL(out)
	if sql == "" {
		sql = llm.StripCodeFences(out)
	}
	if sql == "" {
		return "", errors.New("model returned no SQL")
	}
	return sql, nil
}

func (s *ChatService) insight(ctx context.Context, t *turn, plan *planner.Plan, rows []any) (string, error) {
	sample := rows
	if len(sample) > s.opts.InsightSampleRows {
		sample = sample[:s.opts.InsightSampleRows]
	}
	data, err := json.Marshal(sample)
	if err != nil {
		return "", fmt.Errorf("encode rows: %w", err)
	}
	content := fmt.Sprintf("Question: %s\nSQL: %s\nTable: %s\nTotal rows: %d\nRows (first %d):\n%s",
		t.req.Query, plan.SQL, plan.Table.Table, len(rows), len(sample), data)

	out, err := s.deps.LLM.Complete(llm.WithPurpose(ctx, "insight"), llm.Request{
		Model: s.opts.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: insightSystemPrompt},
			{Role: llm.RoleUser, Content: content},
		},
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return "", err
	}
	return llm.StripCodeFences(out), nil
}

func (s *ChatService) succeed(ctx context.Context, t *turn, res *attemptResult) *models.ChatResponse {
	tables := []string{res.plan.Table.Table}
	answer := res.insight
	if answer == "" {
		answer = fmt.Sprintf("Found %d record(s) in %s.", len(res.rows), res.plan.Table.Table)
	}
	s.saveMessage(ctx, t, &store.Message{
		Speaker: store.SpeakerBot,
		Text:    answer,
		SQL:     res.plan.SQL,
		Tables:  tables,
	})
	t.outcome = "success"
	return &models.ChatResponse{
		Answer:     answer,
		SQL:        res.plan.SQL,
		TablesUsed: tables,
		Insights:   res.insight,
	}
}

// fail is the top-level error path: log, persist, then either a diagnostic
// or one freeform fallback completion.
func (s *ChatService) fail(ctx context.Context, t *turn, perr *PipelineError) *models.ChatResponse {
	if perr == nil {
		perr = classify(KindUnknown, errors.New("no attempt was made"))
	}
	t.log.Error().
		Str("kind", string(perr.Kind)).
		Str("intent", string(t.intent.Tag)).
		Float64("confidence", t.intent.Confidence).
		Str("reasoning", t.intent.Reasoning).
		Str("details", perr.Details).
		Msg("chat turn failed")
	t.outcome, t.errKind = "error", perr.Kind

	diagnostic := &models.ChatResponse{
		Answer:      "Sorry, " + perr.Message + ".",
		SQL:         t.sql,
		Error:       perr.Message,
		Recoverable: models.Bool(false),
		Suggestion:  perr.Suggestion,
	}
	if perr.Kind != KindUnknown {
		diagnostic.CanEscalate = models.Bool(true)
	}
	s.saveMessage(ctx, t, &store.Message{
		Speaker:     store.SpeakerBot,
		Text:        diagnostic.Answer,
		SQL:         t.sql,
		IsError:     true,
		ErrorDetail: perr.Error(),
	})

	if !s.deps.Policy.ShouldUseFallback(t.intent) {
		metrics.FallbacksTotal.WithLabelValues("forbidden").Inc()
		return diagnostic
	}

	answer, err := s.fallback(ctx, t)
	if err != nil {
		metrics.FallbacksTotal.WithLabelValues("failed").Inc()
		t.log.Warn().Err(err).Msg("fallback completion failed")
		return diagnostic
	}
	metrics.FallbacksTotal.WithLabelValues("answered").Inc()
	t.outcome = "fallback"
	s.saveMessage(ctx, t, &store.Message{Speaker: store.SpeakerBot, Text: answer})
	return &models.ChatResponse{
		Answer:      answer,
		Recoverable: models.Bool(true),
		Suggestion:  "This answer was not checked against live HR data. Escalate if you need exact records.",
		CanEscalate: models.Bool(true),
	}
}

func (s *ChatService) fallback(ctx context.Context, t *turn) (string, error) {
	msgs := make([]llm.Message, 0, len(t.history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: fallbackSystemPrompt})
	msgs = append(msgs, t.history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: t.req.Query})

	out, err := s.deps.LLM.Complete(llm.WithPurpose(ctx, "fallback"), llm.Request{
		Model:       s.opts.Model,
		Messages:    msgs,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return "", err
	}
	out = llm.StripCodeFences(out)
	if out == "" {
		return "", errors.New("empty fallback answer")
	}
	return out, nil
}

// finish records metrics and the audit entry for a completed turn.
func (s *ChatService) finish(ctx context.Context, t *turn) {
	if t.outcome == "" {
		t.outcome = "success"
	}
	elapsed := time.Since(t.start)
	metrics.ChatTurnsTotal.WithLabelValues(t.branch, t.outcome).Inc()
	metrics.ChatTurnDuration.WithLabelValues(t.branch).Observe(elapsed.Seconds())

	dataAttempts := 0
	if t.branch == BranchData {
		dataAttempts = len(t.attempts)
	}
	s.deps.AuditLogger.LogTurn(ctx, security.TurnInput{
		ConversationID: t.conv.ID,
		UserID:         t.req.UserID,
		Role:           t.req.Role,
		Query:          t.req.Query,
		SQL:            t.sql,
		Intent:         string(t.intent.Tag),
		Branch:         t.branch,
		Table:          t.table,
		Endpoint:       t.endpoint,
		Attempts:       dataAttempts,
		RowCount:       t.rows,
		Success:        t.outcome == "success",
		ErrorKind:      string(t.errKind),
		Duration:       elapsed,
	})
}
