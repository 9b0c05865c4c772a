package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askhr_chat_turns_total",
			Help: "Chat turns handled, by branch and outcome",
		},
		[]string{"branch", "outcome"},
	)

	ChatTurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askhr_chat_turn_duration_seconds",
			Help:    "End-to-end chat turn latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"branch"},
	)

	PipelineAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askhr_pipeline_attempts_total",
			Help: "Data pipeline attempts, by outcome or error kind",
		},
		[]string{"outcome"},
	)

	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askhr_llm_requests_total",
			Help: "LLM completions, by purpose and status",
		},
		[]string{"purpose", "status"},
	)

	DataAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "askhr_data_api_request_duration_seconds",
			Help: "Data API call latency, by method and status class",
		},
		[]string{"method", "status"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askhr_fallbacks_total",
			Help: "Freeform fallback outcomes after a failed data turn",
		},
		[]string{"result"},
	)

	EscalationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "askhr_escalations_total",
			Help: "Escalation tickets created",
		},
	)

	SessionCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askhr_session_cache_total",
			Help: "Session cache lookups, by result",
		},
		[]string{"result"},
	)
)
