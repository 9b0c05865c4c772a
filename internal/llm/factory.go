package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/askhr/askhr/internal/metrics"
)

// Options selects and configures a provider.
type Options struct {
	Provider        string // "openai" | "anthropic"
	BaseURL         string
	APIKey          string
	AnthropicAPIKey string
	Model           string
	Timeout         time.Duration
}

// New returns the configured provider wrapped with call metrics.
func New(o Options) (Completer, error) {
	switch strings.ToLower(o.Provider) {
	case "", "openai":
		if o.BaseURL == "" {
			return nil, fmt.Errorf("openai provider needs a base url")
		}
		return Instrument(NewOpenAIClient(o.BaseURL, o.APIKey, o.Model, o.Timeout)), nil
	case "anthropic":
		key := o.AnthropicAPIKey
		if key == "" {
			key = o.APIKey
		}
		if key == "" {
			return nil, fmt.Errorf("anthropic provider needs an api key")
		}
		model := o.Model
		if strings.HasPrefix(model, "gpt-") {
			model = ""
		}
		baseURL := o.BaseURL
		if strings.Contains(baseURL, "openai.com") {
			baseURL = ""
		}
		return Instrument(NewAnthropicClient(key, model, baseURL)), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", o.Provider)
	}
}

type purposeKey struct{}

// WithPurpose labels the completions made with ctx for metrics.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

func purposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok {
		return p
	}
	return "unknown"
}

type instrumented struct {
	next Completer
}

// Instrument counts completions by purpose and outcome.
func Instrument(c Completer) Completer {
	return instrumented{next: c}
}

func (i instrumented) Complete(ctx context.Context, r Request) (string, error) {
	out, err := i.next.Complete(ctx, r)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.LLMRequestsTotal.WithLabelValues(purposeFrom(ctx), status).Inc()
	return out, err
}
