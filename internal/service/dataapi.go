package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/askhr/askhr/internal/catalog"
	"github.com/askhr/askhr/internal/metrics"
	"github.com/askhr/askhr/internal/query"
	"github.com/rs/zerolog/log"
)

// maxErrorBody caps how much of the response body Error() prints.
const maxErrorBody = 2048

// ExecutionError is returned for non-2xx data API responses. Body holds the
// complete response text.
type ExecutionError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("data api returned %d %s: %s", e.StatusCode, e.Status, truncate(e.Body, maxErrorBody))
}

// Result is a successful data API call.
type Result struct {
	Envelope   Envelope
	Rows       []any
	StatusCode int
	URL        string
	Duration   time.Duration
}

// DataAPI executes resolved endpoints against the HR/LMS REST backends.
type DataAPI struct {
	client *http.Client
	bases  map[string]string
}

func NewDataAPI(bases map[string]string, timeout time.Duration) *DataAPI {
	return &DataAPI{
		client: &http.Client{Timeout: timeout},
		bases:  bases,
	}
}

// SetHTTPClient replaces the HTTP client (tests).
func (d *DataAPI) SetHTTPClient(c *http.Client) {
	d.client = c
}

// Execute calls ep with params. GET and POST both carry params in the query
// string; POST sends params.Body, else fallbackBody, else {} as JSON.
func (d *DataAPI) Execute(ctx context.Context, ep catalog.Endpoint, params query.Params, fallbackBody any) (*Result, error) {
	target := d.ExpandURL(ep.URL)
	if enc := params.Encode(); enc != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + enc
	}

	method := strings.ToUpper(ep.Method)
	var body io.Reader
	if method == http.MethodPost {
		payload := params.Body
		if payload == nil {
			payload = fallbackBody
		}
		if payload == nil {
			payload = map[string]any{}
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		metrics.DataAPIRequestDuration.WithLabelValues(method, "error").Observe(elapsed.Seconds())
		return nil, fmt.Errorf("data api request: %w", err)
	}
	defer resp.Body.Close()
	metrics.DataAPIRequestDuration.WithLabelValues(method, statusClass(resp.StatusCode)).Observe(elapsed.Seconds())

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read data api response: %w", err)
	}

	log.Debug().
		Str("method", method).
		Str("url", ep.URL).
		Int("status", resp.StatusCode).
		Dur("duration", elapsed).
		Msg("data api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExecutionError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       string(raw),
		}
	}

	env := ClassifyEnvelope(decodeBody(raw))
	return &Result{
		Envelope:   env,
		Rows:       env.Rows(),
		StatusCode: resp.StatusCode,
		URL:        req.URL.Redacted(),
		Duration:   elapsed,
	}, nil
}

// ExpandURL substitutes ${name} placeholders with the configured base URLs.
func (d *DataAPI) ExpandURL(tmpl string) string {
	return os.Expand(tmpl, func(name string) string {
		return d.bases[name]
	})
}

// decodeBody parses JSON, wrapping anything unparseable as {"raw": text}.
func decodeBody(raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return v
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
