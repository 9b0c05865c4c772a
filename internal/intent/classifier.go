package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/askhr/askhr/internal/llm"
)

const classifySystemPrompt = `You classify messages sent to an HR and learning-management assistant.
Answer with a single JSON object and nothing else:
{"intent": "<TAG>", "confidence": <0..1>, "reasoning": "<one sentence>"}

Tags:
- DATA_QUERY: asks for records or numbers (employees, departments, leave, attendance, payroll, courses, chapters, menus, users)
- CREATE_JOB_DESCRIPTION: asks to write or draft a job description
- HUMAN_SUPPORT: wants to talk to a person or asks for escalation
- COMPLAINT: expresses dissatisfaction or reports something broken
- GENERAL_QUESTION: anything else`

var intentSchema = map[string]any{
	"type":     "object",
	"required": []any{"intent", "confidence"},
	"properties": map[string]any{
		"intent": map[string]any{
			"type": "string",
			"enum": tagEnum(),
		},
		"confidence": map[string]any{
			"type":    "number",
			"minimum": 0,
			"maximum": 1,
		},
		"reasoning": map[string]any{"type": "string"},
	},
}

func tagEnum() []any {
	out := make([]any, len(Tags))
	for i, t := range Tags {
		out[i] = string(t)
	}
	return out
}

// Classifier asks the model for an intent and falls back to keyword routing
// when the model is unavailable or answers out of shape.
type Classifier struct {
	llm    llm.Completer
	model  string
	router *Router
}

// NewClassifier returns a classifier; a nil completer means keyword routing only.
func NewClassifier(c llm.Completer, model string) *Classifier {
	return &Classifier{llm: c, model: model, router: NewRouter()}
}

// Classify never fails.
func (c *Classifier) Classify(ctx context.Context, text string) Intent {
	if c.llm == nil {
		return c.router.Route(text)
	}

	out, err := c.llm.Complete(llm.WithPurpose(ctx, "classify"), llm.Request{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: classifySystemPrompt},
			{Role: llm.RoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		log.Warn().Err(err).Msg("intent classification failed, using keyword router")
		return c.router.Route(text)
	}

	in, err := parseIntent(out)
	if err != nil {
		log.Warn().Err(err).Str("raw", truncate(out, 200)).Msg("invalid intent payload, using keyword router")
		return c.router.Route(text)
	}
	return in
}

func parseIntent(raw string) (Intent, error) {
	body := llm.StripCodeFences(raw)
	if i := strings.Index(body, "{"); i > 0 {
		body = body[i:]
	}
	if j := strings.LastIndex(body, "}"); j >= 0 && j < len(body)-1 {
		body = body[:j+1]
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return Intent{}, fmt.Errorf("decode intent: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(intentSchema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return Intent{}, fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return Intent{}, fmt.Errorf("intent validation failed: %v", errs)
	}

	var in Intent
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return Intent{}, fmt.Errorf("decode intent: %w", err)
	}
	return in, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
