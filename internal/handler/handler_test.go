package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askhr/askhr/internal/catalog"
	"github.com/askhr/askhr/internal/escalation"
	"github.com/askhr/askhr/internal/handler"
	"github.com/askhr/askhr/internal/models"
	"github.com/askhr/askhr/internal/planner"
	"github.com/askhr/askhr/internal/query"
	"github.com/askhr/askhr/internal/store"
)

type echoChat struct {
	got *models.ChatRequest
}

func (e *echoChat) Handle(_ context.Context, req models.ChatRequest) *models.ChatResponse {
	e.got = &req
	return &models.ChatResponse{Answer: "hi " + req.Query, ConversationID: "c1"}
}

func TestChatHandler(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"ok", `{"query":"list employees","sessionId":"s1","debugMode":true}`, http.StatusOK},
		{"bad json", `{"query":`, http.StatusBadRequest},
		{"missing query", `{"sessionId":"s1"}`, http.StatusBadRequest},
		{"missing session", `{"query":"list employees"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &echoChat{}
			h := handler.NewChatHandler(svc)
			rr := httptest.NewRecorder()
			h.Chat(rr, httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(tt.body)))

			assert.Equal(t, tt.code, rr.Code)
			if tt.code != http.StatusOK {
				assert.Nil(t, svc.got)
				return
			}
			require.NotNil(t, svc.got)
			assert.True(t, svc.got.DebugMode)
			var resp models.ChatResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "hi list employees", resp.Answer)
		})
	}
}

func escalationRouter(svc handler.Escalator) http.Handler {
	r := chi.NewRouter()
	r.Post("/conversations/{conversation_id}/escalate", handler.NewEscalationHandler(svc).Escalate)
	return r
}

func TestEscalationCreatesTicket(t *testing.T) {
	mem := store.NewMemory()
	conv, err := mem.CreateConversation(t.Context(), "s1", "u1")
	require.NoError(t, err)

	srv := escalationRouter(escalation.NewService(mem, mem, nil, "askhr.escalations"))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/conversations/"+conv.ID+"/escalate",
		strings.NewReader(`{"userId":"u1","reason":"need payroll correction"}`)))

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp models.TicketResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, escalation.TicketStatusOpen, resp.Status)
	assert.Equal(t, conv.ID, resp.ConversationID)
	assert.NotEmpty(t, resp.TicketID)

	got, err := mem.GetBySessionID(t.Context(), "s1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusEscalated, got.Status)
}

type stubEscalator struct{ err error }

func (s stubEscalator) Create(context.Context, string, string, string) (*store.Ticket, error) {
	return nil, s.err
}

func TestEscalationErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		body string
		code int
	}{
		{"no reason", escalation.ErrReasonRequired, `{"reason":""}`, http.StatusBadRequest},
		{"unknown conversation", store.ErrNotFound, `{"reason":"x"}`, http.StatusNotFound},
		{"store down", errors.New("connection refused"), `{"reason":"x"}`, http.StatusInternalServerError},
		{"bad json", nil, `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			escalationRouter(stubEscalator{err: tt.err}).ServeHTTP(rr,
				httptest.NewRequest(http.MethodPost, "/conversations/c1/escalate", strings.NewReader(tt.body)))
			assert.Equal(t, tt.code, rr.Code)
			assert.NotContains(t, rr.Body.String(), "connection refused")
		})
	}
}

func newCatalogHandler() *handler.CatalogHandler {
	return handler.NewCatalogHandler(planner.New(
		catalog.NewTableResolver(),
		catalog.NewEndpointResolver(catalog.MustLoadRegistry()),
		query.NewParamBuilder(query.ParamConfig{APIToken: "secret", InstitutionID: "7"}),
	))
}

func TestCatalogTables(t *testing.T) {
	rr := httptest.NewRecorder()
	newCatalogHandler().Tables(rr, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/tables", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Tables     []string          `json:"tables"`
		Aliases    map[string]string `json:"aliases"`
		Strategies []string          `json:"strategies"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Contains(t, body.Tables, "hrms_departments")
	assert.Equal(t, "hrms_departments", body.Aliases["departments"])
	assert.Equal(t, []string{"fragment", "query_words", "column_hints"}, body.Strategies)
}

func TestCatalogEndpoints(t *testing.T) {
	rr := httptest.NewRecorder()
	newCatalogHandler().Endpoints(rr, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/endpoints", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Endpoints map[string]catalog.Endpoint `json:"endpoints"`
		Count     int                         `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, len(body.Endpoints), body.Count)
	assert.Equal(t, "${hrms}/departments", body.Endpoints["hrms_departments"].URL)
}

func TestCatalogCompile(t *testing.T) {
	h := newCatalogHandler()

	rr := httptest.NewRecorder()
	h.Compile(rr, httptest.NewRequest(http.MethodPost, "/api/v1/catalog/compile",
		strings.NewReader(`{"sql":"SELECT * FROM chapter_master WHERE parent_id = 0"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	var ok struct {
		Plan struct {
			Query string                  `json:"query"`
			Table catalog.TableResolution `json:"table"`
		} `json:"plan"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&ok))
	assert.Equal(t, "chapter_master", ok.Plan.Table.Table)
	assert.NotContains(t, ok.Plan.Query, "secret")
	assert.Contains(t, ok.Plan.Query, "filters%5Bparent_id%5D=0")

	rr = httptest.NewRecorder()
	h.Compile(rr, httptest.NewRequest(http.MethodPost, "/api/v1/catalog/compile",
		strings.NewReader(`{"sql":"SELECT 1","query":"hello there"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = httptest.NewRecorder()
	h.Compile(rr, httptest.NewRequest(http.MethodPost, "/api/v1/catalog/compile", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealth(t *testing.T) {
	down := func(context.Context) error { return errors.New("dial tcp: refused") }
	up := func(context.Context) error { return nil }

	tests := []struct {
		name   string
		probes []handler.Probe
		code   int
		status string
	}{
		{"all up", []handler.Probe{{Name: "store", Check: up}}, http.StatusOK, "healthy"},
		{"optional down", []handler.Probe{{Name: "store", Check: up}, {Name: "redis", Check: down, Optional: true}}, http.StatusOK, "healthy"},
		{"required down", []handler.Probe{{Name: "store", Check: down}}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.NewHealthHandler(tt.probes...).Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.code, rr.Code)

			var resp models.HealthResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, "ok", resp.Checks["server"])
			assert.Len(t, resp.Checks, len(tt.probes)+1)
		})
	}
}
