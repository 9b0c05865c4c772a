package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
	APIPrefix   string `mapstructure:"api_prefix"`
	LogLevel    string `mapstructure:"log_level"`

	// CORS
	CORSOrigins []string `mapstructure:"cors_origins"`

	// Auth
	APIKeyHeader string   `mapstructure:"api_key_header"`
	APIKeys      []string `mapstructure:"api_keys"`
	EnableAuth   bool     `mapstructure:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`

	// AI / LLM
	LLMProvider     string        `mapstructure:"llm_provider"` // "openai" | "anthropic"
	LLMBaseURL      string        `mapstructure:"llm_base_url"`
	LLMAPIKey       string        `mapstructure:"llm_api_key"`
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key"`
	LLMModel        string        `mapstructure:"llm_model"`
	LLMTemperature  float64       `mapstructure:"llm_temperature"`
	LLMTimeout      time.Duration `mapstructure:"llm_timeout"`

	// Data API
	HRMSAPIBaseURL   string        `mapstructure:"hrms_api_base_url"`
	LMSAPIBaseURL    string        `mapstructure:"lms_api_base_url"`
	CoreAPIBaseURL   string        `mapstructure:"core_api_base_url"`
	APIToken         string        `mapstructure:"api_token"`
	APITokenFallback string        `mapstructure:"api_token_fallback"`
	InstitutionID    string        `mapstructure:"institution_id"`
	OperatorID       string        `mapstructure:"operator_id"`
	PeriodID         string        `mapstructure:"period_id"`
	DataAPITimeout   time.Duration `mapstructure:"data_api_timeout"`

	// Pipeline
	MaxAttempts        int     `mapstructure:"max_attempts"`
	FallbackConfidence float64 `mapstructure:"fallback_confidence_threshold"`
	DefaultRole        string  `mapstructure:"default_role"`
	InsightSampleRows  int     `mapstructure:"insight_sample_rows"`
	HistoryTurns       int     `mapstructure:"history_turns"`

	// Storage
	DatabaseURL     string        `mapstructure:"database_url"`
	RedisURL        string        `mapstructure:"redis_url"`
	SessionCacheTTL time.Duration `mapstructure:"session_cache_ttl"`

	// Audit
	EnableAuditLogging     bool     `mapstructure:"enable_audit_logging"`
	ElasticsearchEnabled   bool     `mapstructure:"elasticsearch_enabled"`
	ElasticsearchAddresses []string `mapstructure:"elasticsearch_addresses"`
	ElasticsearchUser      string   `mapstructure:"elasticsearch_user"`
	ElasticsearchPassword  string   `mapstructure:"elasticsearch_password"`
	AuditIndex             string   `mapstructure:"audit_index"`

	// Escalation
	NATSURL           string `mapstructure:"nats_url"`
	NATSToken         string `mapstructure:"nats_token"`
	EscalationSubject string `mapstructure:"escalation_subject"`

	// Security
	EnableDataMasking bool                `mapstructure:"enable_data_masking"`
	SensitiveColumns  []string            `mapstructure:"sensitive_columns"`
	RoleRestrictions  map[string][]string `mapstructure:"role_restrictions"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"host":                          "ASKHR_HOST",
	"port":                          "ASKHR_PORT",
	"environment":                   "ASKHR_ENV",
	"log_level":                     "LOG_LEVEL",
	"cors_origins":                  "ASKHR_CORS_ORIGINS",
	"api_keys":                      "ASKHR_API_KEYS",
	"enable_auth":                   "ENABLE_AUTH",
	"rate_limit_per_minute":         "RATE_LIMIT_PER_MINUTE",
	"llm_provider":                  "LLM_PROVIDER",
	"llm_base_url":                  "LLM_BASE_URL",
	"llm_api_key":                   "LLM_API_KEY",
	"anthropic_api_key":             "ANTHROPIC_API_KEY",
	"llm_model":                     "LLM_MODEL",
	"llm_temperature":               "LLM_TEMPERATURE",
	"llm_timeout":                   "LLM_TIMEOUT",
	"hrms_api_base_url":             "HRMS_API_BASE_URL",
	"lms_api_base_url":              "LMS_API_BASE_URL",
	"core_api_base_url":             "CORE_API_BASE_URL",
	"api_token":                     "HR_API_TOKEN",
	"api_token_fallback":            "HR_API_TOKEN_FALLBACK",
	"institution_id":                "INSTITUTION_ID",
	"operator_id":                   "OPERATOR_ID",
	"period_id":                     "PERIOD_ID",
	"data_api_timeout":              "DATA_API_TIMEOUT",
	"fallback_confidence_threshold": "FALLBACK_CONFIDENCE_THRESHOLD",
	"default_role":                  "DEFAULT_ROLE",
	"database_url":                  "DATABASE_URL",
	"redis_url":                     "REDIS_URL",
	"session_cache_ttl":             "SESSION_CACHE_TTL",
	"enable_audit_logging":          "ENABLE_AUDIT_LOGGING",
	"elasticsearch_enabled":         "ELASTICSEARCH_ENABLED",
	"elasticsearch_addresses":       "ELASTICSEARCH_ADDRESSES",
	"elasticsearch_user":            "ELASTICSEARCH_USER",
	"elasticsearch_password":        "ELASTICSEARCH_PASSWORD",
	"audit_index":                   "AUDIT_INDEX",
	"nats_url":                      "NATS_URL",
	"nats_token":                    "NATS_TOKEN",
	"escalation_subject":            "ESCALATION_SUBJECT",
	"enable_data_masking":           "ENABLE_DATA_MASKING",
}

// Load reads .env, an optional askhr.yaml and the environment, in that order of
// increasing precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path := getEnv("ASKHR_CONFIG", ""); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("askhr")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("environment", DefaultEnvironment)
	v.SetDefault("api_prefix", DefaultAPIPrefix)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("cors_origins", DefaultCORSOrigins)
	v.SetDefault("api_key_header", "X-API-Key")
	v.SetDefault("api_keys", []string{})
	v.SetDefault("enable_auth", true)
	v.SetDefault("rate_limit_per_minute", DefaultRateLimitPerMinute)

	v.SetDefault("llm_provider", DefaultLLMProvider)
	v.SetDefault("llm_base_url", DefaultLLMBaseURL)
	v.SetDefault("llm_model", DefaultLLMModel)
	v.SetDefault("llm_temperature", DefaultLLMTemperature)
	v.SetDefault("llm_timeout", DefaultLLMTimeout)

	v.SetDefault("data_api_timeout", DefaultDataAPITimeout)

	v.SetDefault("max_attempts", DefaultMaxAttempts)
	v.SetDefault("fallback_confidence_threshold", DefaultFallbackConfidence)
	v.SetDefault("default_role", DefaultRole)
	v.SetDefault("insight_sample_rows", DefaultInsightSampleRows)
	v.SetDefault("history_turns", DefaultHistoryTurns)

	v.SetDefault("session_cache_ttl", DefaultSessionCacheTTL)

	v.SetDefault("enable_audit_logging", true)
	v.SetDefault("audit_index", DefaultAuditIndex)

	v.SetDefault("escalation_subject", DefaultEscalationSubject)

	v.SetDefault("enable_data_masking", true)
	v.SetDefault("sensitive_columns", DefaultSensitiveColumns)
	v.SetDefault("role_restrictions", DefaultRoleRestrictions)
}

// normalize trims list values that came in through comma-separated env vars.
func (c *Config) normalize() {
	c.APIKeys = compact(c.APIKeys)
	c.CORSOrigins = compact(c.CORSOrigins)
	c.ElasticsearchAddresses = compact(c.ElasticsearchAddresses)
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	c.DefaultRole = strings.ToLower(strings.TrimSpace(c.DefaultRole))
	c.LLMBaseURL = strings.TrimRight(c.LLMBaseURL, "/")
	if c.RoleRestrictions == nil {
		c.RoleRestrictions = DefaultRoleRestrictions
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	switch c.LLMProvider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm_provider %q", c.LLMProvider)
	}
	if c.MaxAttempts < 1 || c.MaxAttempts > MaxAttemptsLimit {
		return fmt.Errorf("max_attempts must be between 1 and %d, got %d", MaxAttemptsLimit, c.MaxAttempts)
	}
	if c.FallbackConfidence < 0 || c.FallbackConfidence > 1 {
		return fmt.Errorf("fallback_confidence_threshold must be within [0,1], got %v", c.FallbackConfidence)
	}
	if c.ElasticsearchEnabled && len(c.ElasticsearchAddresses) == 0 {
		return errors.New("elasticsearch_enabled requires elasticsearch_addresses")
	}
	return nil
}

// DataAPIBases returns the base URLs that endpoint templates expand against.
func (c *Config) DataAPIBases() map[string]string {
	return map[string]string{
		"hrms": strings.TrimRight(c.HRMSAPIBaseURL, "/"),
		"lms":  strings.TrimRight(c.LMSAPIBaseURL, "/"),
		"core": strings.TrimRight(c.CoreAPIBaseURL, "/"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
