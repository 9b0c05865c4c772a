package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askhr/askhr/internal/config"
	"github.com/askhr/askhr/internal/models"
	"github.com/askhr/askhr/internal/server"
)

// fakeLLM speaks the chat-completions protocol and answers by system prompt.
func fakeLLM(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		system := req.Messages[0].Content
		answer := "ok"
		switch {
		case strings.HasPrefix(system, "You classify messages"):
			answer = `{"intent":"DATA_QUERY","confidence":0.95,"reasoning":"asks for departments"}`
		case strings.Contains(system, "Translate the user's question"):
			answer = "```sql\nSELECT * FROM hrms_departments WHERE status = 'active'\n```"
		case strings.Contains(system, "rows the HR system returned"):
			answer = "There are 2 active departments."
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"message":       map[string]any{"role": "assistant", "content": answer},
				"finish_reason": "stop",
			}},
		})
	}))
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	llmSrv := fakeLLM(t)
	t.Cleanup(llmSrv.Close)
	dataSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":1,"name":"Engineering"},{"id":2,"name":"Sales"}]}`))
	}))
	t.Cleanup(dataSrv.Close)

	cfg := &config.Config{
		Host:               "127.0.0.1",
		Port:               8000,
		APIPrefix:          "/api/v1",
		APIKeyHeader:       "X-API-Key",
		APIKeys:            []string{"test-key"},
		EnableAuth:         true,
		RateLimitPerMinute: 100,
		LLMProvider:        "openai",
		LLMBaseURL:         llmSrv.URL,
		LLMModel:           "test-model",
		LLMTimeout:         5 * time.Second,
		HRMSAPIBaseURL:     dataSrv.URL,
		DataAPITimeout:     5 * time.Second,
		MaxAttempts:        2,
		FallbackConfidence: 0.85,
		DefaultRole:        "employee",
		InsightSampleRows:  20,
		HistoryTurns:       10,
		EnableDataMasking:  true,
		RoleRestrictions:   config.DefaultRoleRestrictions,
		EscalationSubject:  config.DefaultEscalationSubject,
	}
	srv, err := server.New(t.Context(), cfg)
	require.NoError(t, err)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, key bool) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if key {
		req.Header.Set("X-API-Key", "test-key")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPublicRoutes(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodGet, "/health", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	var health models.HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&health))
	assert.Equal(t, "ok", health.Checks["store"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = do(t, h, http.MethodGet, "/metrics", "", false)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAPIRequiresKey(t *testing.T) {
	h := newTestServer(t)
	rr := do(t, h, http.MethodPost, "/api/v1/chat", `{"query":"list departments","sessionId":"s1"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestChatThenEscalate(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/api/v1/chat",
		`{"query":"show active departments","sessionId":"s1","userId":"u1","debugMode":true}`, true)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.ChatResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "There are 2 active departments.", resp.Answer)
	assert.Equal(t, []string{"hrms_departments"}, resp.TablesUsed)
	require.NotNil(t, resp.Intent)
	assert.Equal(t, "DATA_QUERY", resp.Intent.Intent)
	require.NotNil(t, resp.Debug)
	require.Len(t, resp.Debug.Attempts, 1)
	require.NotEmpty(t, resp.ConversationID)

	rr = do(t, h, http.MethodPost, "/api/v1/conversations/"+resp.ConversationID+"/escalate",
		`{"userId":"u1","reason":"numbers look wrong"}`, true)
	require.Equal(t, http.StatusCreated, rr.Code)
	var ticket models.TicketResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&ticket))
	assert.Equal(t, resp.ConversationID, ticket.ConversationID)
}

func TestCatalogRoutes(t *testing.T) {
	h := newTestServer(t)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/catalog/tables", "", true).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/catalog/endpoints", "", true).Code)

	rr := do(t, h, http.MethodPost, "/api/v1/catalog/compile", `{"sql":"SELECT * FROM menu"}`, true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "tblmenumaster")
}
