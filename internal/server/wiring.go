package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/askhr/askhr/internal/agent"
	"github.com/askhr/askhr/internal/catalog"
	"github.com/askhr/askhr/internal/config"
	"github.com/askhr/askhr/internal/escalation"
	"github.com/askhr/askhr/internal/handler"
	"github.com/askhr/askhr/internal/intent"
	"github.com/askhr/askhr/internal/llm"
	"github.com/askhr/askhr/internal/planner"
	"github.com/askhr/askhr/internal/query"
	"github.com/askhr/askhr/internal/security"
	"github.com/askhr/askhr/internal/service"
	"github.com/askhr/askhr/internal/store"
)

// handlers are the HTTP entry points mounted by newRouter.
type handlers struct {
	health     *handler.HealthHandler
	chat       *handler.ChatHandler
	escalation *handler.EscalationHandler
	catalog    *handler.CatalogHandler
}

// NewPlanner builds the SQL-to-endpoint compiler from cfg.
func NewPlanner(cfg *config.Config) (*planner.Planner, error) {
	reg, err := catalog.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("load endpoint registry: %w", err)
	}
	return planner.New(
		catalog.NewTableResolver(),
		catalog.NewEndpointResolver(reg),
		query.NewParamBuilder(query.ParamConfig{
			APIToken:         cfg.APIToken,
			FallbackAPIToken: cfg.APITokenFallback,
			InstitutionID:    cfg.InstitutionID,
			OperatorID:       cfg.OperatorID,
			PeriodID:         cfg.PeriodID,
		}),
	), nil
}

// build wires every component and registers its cleanup with s.
func (s *Server) build(ctx context.Context) (handlers, error) {
	cfg := s.cfg
	var probes []handler.Probe

	// ─── Storage ────────────────────────────────────────────────────────────────
	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return handlers{}, fmt.Errorf("connect postgres: %w", err)
		}
		s.onClose(pg.Close)
		if err := pg.Migrate(ctx); err != nil {
			return handlers{}, fmt.Errorf("migrate: %w", err)
		}
		st = pg
	} else {
		log.Warn().Msg("DATABASE_URL not set - conversations are kept in memory")
		st = store.NewMemory()
	}
	probes = append(probes, handler.Probe{Name: "store", Check: st.Ping})

	var conversations store.ConversationStore = st
	cached := false
	if cfg.RedisURL != "" {
		rdb, err := store.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("invalid REDIS_URL - session cache disabled")
		} else {
			cache := store.NewSessionCache(st, rdb, cfg.SessionCacheTTL)
			s.onClose(func() { _ = rdb.Close() })
			conversations = cache
			cached = true
			probes = append(probes, handler.Probe{Name: "redis", Check: cache.Ping, Optional: true})
		}
	}

	// ─── Audit ──────────────────────────────────────────────────────────────────
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging)
	if cfg.ElasticsearchEnabled {
		idx, err := service.NewAuditIndex(cfg.ElasticsearchAddresses, cfg.ElasticsearchUser, cfg.ElasticsearchPassword, cfg.AuditIndex)
		if err != nil {
			log.Warn().Err(err).Msg("elasticsearch audit index unavailable")
		} else {
			if err := idx.EnsureIndex(ctx); err != nil {
				log.Warn().Err(err).Str("index", idx.Name()).Msg("ensure audit index failed")
			}
			auditLogger = auditLogger.WithSink(idx)
			probes = append(probes, handler.Probe{Name: "elasticsearch", Check: idx.TestConnection, Optional: true})
		}
	}

	// ─── Escalation ─────────────────────────────────────────────────────────────
	var publisher escalation.Publisher
	if cfg.NATSURL != "" {
		pub, err := escalation.NewNATSPublisher(cfg.NATSURL, cfg.NATSToken)
		if err != nil {
			log.Warn().Err(err).Msg("nats unavailable - escalation events disabled")
		} else {
			s.onClose(pub.Close)
			publisher = pub
			probes = append(probes, handler.Probe{Name: "nats", Optional: true, Check: func(context.Context) error {
				if !pub.Connected() {
					return errors.New("not connected")
				}
				return nil
			}})
		}
	}
	escalations := escalation.NewService(st, conversations, publisher, cfg.EscalationSubject)

	// ─── Pipeline ───────────────────────────────────────────────────────────────
	completer, err := llm.New(llm.Options{
		Provider:        cfg.LLMProvider,
		BaseURL:         cfg.LLMBaseURL,
		APIKey:          cfg.LLMAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		Model:           cfg.LLMModel,
		Timeout:         cfg.LLMTimeout,
	})
	if err != nil {
		return handlers{}, fmt.Errorf("llm: %w", err)
	}

	pl, err := NewPlanner(cfg)
	if err != nil {
		return handlers{}, err
	}

	var masker *security.DataMasker
	if cfg.EnableDataMasking {
		masker = security.NewDataMasker(cfg.SensitiveColumns)
	}

	chat := agent.NewChatService(agent.Deps{
		LLM:             completer,
		Classifier:      intent.NewClassifier(completer, cfg.LLMModel),
		Policy:          intent.Policy{FallbackConfidence: cfg.FallbackConfidence},
		PromptValidator: security.NewPromptValidator(),
		AccessChecker:   security.NewAccessChecker(cfg.RoleRestrictions),
		DataMasker:      masker,
		AuditLogger:     auditLogger,
		Planner:         pl,
		Executor: service.NewDataAPI(map[string]string{
			"hrms": cfg.HRMSAPIBaseURL,
			"lms":  cfg.LMSAPIBaseURL,
			"core": cfg.CoreAPIBaseURL,
		}, cfg.DataAPITimeout),
		Conversations:   conversations,
		JobDescriptions: st,
	}, agent.Options{
		Model:             cfg.LLMModel,
		Temperature:       cfg.LLMTemperature,
		MaxAttempts:       cfg.MaxAttempts,
		HistoryTurns:      cfg.HistoryTurns,
		InsightSampleRows: cfg.InsightSampleRows,
		DefaultRole:       cfg.DefaultRole,
	})

	log.Info().
		Str("llm_provider", cfg.LLMProvider).
		Str("llm_model", cfg.LLMModel).
		Bool("postgres", cfg.DatabaseURL != "").
		Bool("session_cache", cached).
		Bool("audit_index", cfg.ElasticsearchEnabled).
		Bool("escalation_events", publisher != nil).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("data_masking", masker != nil).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("service configuration")

	if cfg.APIToken == "" {
		log.Warn().Msg("HR_API_TOKEN not set - data API calls will be unauthenticated")
	}
	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("auth enabled but no API keys configured - all API requests will be rejected")
	}

	return handlers{
		health:     handler.NewHealthHandler(probes...),
		chat:       handler.NewChatHandler(chat),
		escalation: handler.NewEscalationHandler(escalations),
		catalog:    handler.NewCatalogHandler(pl),
	}, nil
}
