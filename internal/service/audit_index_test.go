package service_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askhr/askhr/internal/security"
	"github.com/askhr/askhr/internal/service"
)

type fakeES struct {
	mu       sync.Mutex
	exists   bool
	created  string
	docs     []map[string]any
	failDocs bool
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/":
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodHead:
		if f.exists {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.created = string(body)
		f.exists = true
		w.Write([]byte(`{"acknowledged":true}`))
	case r.Method == http.MethodPost && r.URL.Path == "/askhr-audit/_doc":
		if f.failDocs {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
			return
		}
		var doc map[string]any
		_ = json.NewDecoder(r.Body).Decode(&doc)
		f.docs = append(f.docs, doc)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestAuditIndex(t *testing.T) {
	es := &fakeES{}
	srv := httptest.NewServer(es)
	defer srv.Close()

	idx, err := service.NewAuditIndex([]string{srv.URL}, "", "", "askhr-audit")
	require.NoError(t, err)
	ctx := t.Context()

	require.NoError(t, idx.TestConnection(ctx))
	require.NoError(t, idx.EnsureIndex(ctx))
	es.mu.Lock()
	assert.Contains(t, es.created, `"conversation_id"`)
	es.mu.Unlock()

	require.NoError(t, idx.IndexAudit(ctx, security.TurnAudit{ConversationID: "c-1", Intent: "DATA_QUERY", Success: true}))
	es.mu.Lock()
	require.Len(t, es.docs, 1)
	assert.Equal(t, "c-1", es.docs[0]["conversation_id"])
	assert.Equal(t, true, es.docs[0]["success"])
	es.failDocs = true
	es.mu.Unlock()

	err = idx.Index(ctx, map[string]any{"x": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestAuditIndexAlreadyExists(t *testing.T) {
	es := &fakeES{exists: true}
	srv := httptest.NewServer(es)
	defer srv.Close()

	idx, err := service.NewAuditIndex([]string{srv.URL}, "", "", "askhr-audit")
	require.NoError(t, err)
	require.NoError(t, idx.EnsureIndex(t.Context()))
	es.mu.Lock()
	defer es.mu.Unlock()
	assert.Empty(t, es.created)
}
