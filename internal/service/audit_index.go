package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/askhr/askhr/internal/security"
)

const auditMapping = `{
  "mappings": {
    "properties": {
      "@timestamp":      {"type": "date"},
      "conversation_id": {"type": "keyword"},
      "user_hash":       {"type": "keyword"},
      "role":            {"type": "keyword"},
      "query_hash":      {"type": "keyword"},
      "sql_hash":        {"type": "keyword"},
      "intent":          {"type": "keyword"},
      "branch":          {"type": "keyword"},
      "table":           {"type": "keyword"},
      "endpoint":        {"type": "keyword"},
      "attempts":        {"type": "integer"},
      "row_count":       {"type": "integer"},
      "success":         {"type": "boolean"},
      "error_kind":      {"type": "keyword"},
      "duration_ms":     {"type": "long"}
    }
  }
}`

// AuditIndex writes chat audit records to an Elasticsearch index.
type AuditIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewAuditIndex(addresses []string, user, password, index string) (*AuditIndex, error) {
	cfg := elasticsearch.Config{
		Addresses:  addresses,
		MaxRetries: 3,
	}
	if user != "" {
		cfg.Username = user
		cfg.Password = password
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch.NewClient: %w", err)
	}
	return &AuditIndex{client: client, index: index}, nil
}

func (a *AuditIndex) Name() string { return a.index }

// TestConnection pings the cluster
func (a *AuditIndex) TestConnection(ctx context.Context) error {
	res, err := a.client.Ping(a.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping error: %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the audit index with its mapping when it is missing.
func (a *AuditIndex) EnsureIndex(ctx context.Context) error {
	res, err := a.client.Indices.Exists([]string{a.index}, a.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = a.client.Indices.Create(a.index,
		a.client.Indices.Create.WithContext(ctx),
		a.client.Indices.Create.WithBody(strings.NewReader(auditMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		// a concurrent creator wins the race
		if strings.Contains(string(body), "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("create index %s: %s", res.Status(), truncate(string(body), 500))
	}
	return nil
}

// Index stores doc in the audit index.
func (a *AuditIndex) Index(ctx context.Context, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal audit doc: %w", err)
	}
	res, err := a.client.Index(a.index, bytes.NewReader(body),
		a.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index audit doc: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index audit doc %s: %s", res.Status(), truncate(string(raw), 500))
	}
	return nil
}

// IndexAudit makes AuditIndex a security.AuditSink.
func (a *AuditIndex) IndexAudit(ctx context.Context, rec security.TurnAudit) error {
	return a.Index(ctx, rec)
}
