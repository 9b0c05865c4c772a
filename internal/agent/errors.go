package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/askhr/askhr/internal/llm"
	"github.com/askhr/askhr/internal/service"
)

// Kind is the failure category of a chat turn.
type Kind string

const (
	KindGuardedRejection Kind = "GUARDED_REJECTION"
	KindGenerationFailed Kind = "GENERATION_FAILED"
	KindUnsafeSQL        Kind = "UNSAFE_SQL"
	KindTableNotResolved Kind = "TABLE_NOT_RESOLVED"
	KindExecutionFailed  Kind = "EXECUTION_FAILED"
	KindUnknown          Kind = "UNKNOWN"
)

// PipelineError is a classified failure carrying what the user should see.
type PipelineError struct {
	Kind       Kind
	Message    string
	Details    string
	Suggestion string
	Retryable  bool
	Err        error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// classify decides the kind, user message and retryability of an error raised
// at stage kind. Errors that are already classified pass through.
func classify(kind Kind, err error) *PipelineError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}

	e := &PipelineError{Kind: kind, Err: err}
	if err != nil {
		e.Details = err.Error()
	}

	switch kind {
	case KindGenerationFailed:
		e.Message = "the language model could not produce an answer"
		e.Suggestion = "Try again in a moment or rephrase the question."
		e.Retryable = true
		var apiErr *llm.APIError
		if errors.As(err, &apiErr) {
			e.Retryable = apiErr.Retryable()
		}
	case KindUnsafeSQL:
		e.Message = "the generated query tried to modify data, which is not allowed"
		e.Suggestion = "Ask a read-only question, for example \"list active employees\"."
		e.Retryable = true
	case KindTableNotResolved:
		e.Message = "could not tell which data you are asking about"
		if err != nil {
			e.Message = err.Error()
		}
		e.Suggestion = "Mention what you want to see, such as employees, departments, leaves, courses, chapters or menus."
		e.Retryable = true
	case KindExecutionFailed:
		e.Message = "the data service could not answer the request"
		e.Suggestion = "Try again later or ask for a human."
		e.Retryable = executionRetryable(err)
	default:
		e.Kind = KindUnknown
		e.Message = "something went wrong while answering"
		e.Retryable = false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		e.Retryable = false
	}
	return e
}

func executionRetryable(err error) bool {
	var execErr *service.ExecutionError
	if errors.As(err, &execErr) {
		code := execErr.StatusCode
		return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// transport failures without a typed error, such as a reset connection
	return err != nil
}

func guarded(reasons []string) *PipelineError {
	return &PipelineError{
		Kind:       KindGuardedRejection,
		Message:    "the request was rejected",
		Details:    fmt.Sprint(reasons),
		Suggestion: "Rephrase the question without restricted content, or ask for a human.",
		Retryable:  false,
	}
}
