package config

import "time"

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultLLMProvider    = "openai"
	DefaultLLMBaseURL     = "https://api.openai.com/v1"
	DefaultLLMModel       = "gpt-4o-mini"
	DefaultLLMTemperature = 0.1
	DefaultLLMTimeout     = 60 * time.Second

	DefaultDataAPITimeout = 30 * time.Second

	// Generation/execution attempts per data turn. MaxAttemptsLimit is the
	// ceiling no configuration may raise.
	DefaultMaxAttempts = 2
	MaxAttemptsLimit   = 2

	DefaultFallbackConfidence = 0.85
	DefaultRole               = "employee"
	DefaultInsightSampleRows  = 20
	DefaultHistoryTurns       = 10

	DefaultSessionCacheTTL = 30 * time.Minute

	DefaultAuditIndex = "askhr-audit"

	DefaultEscalationSubject = "askhr.escalation.created"

	DefaultCORSMaxAge = 300
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}

var DefaultSensitiveColumns = []string{
	"email", "phone", "mobile", "password", "secret", "token",
	"bank_account", "account_number", "ifsc", "pan_number", "aadhaar",
	"national_id", "salary", "ctc", "basic_pay",
}

// DefaultRoleRestrictions lists phrases each role may not ask about.
// Roles missing here fall back to the "employee" entry.
var DefaultRoleRestrictions = map[string][]string{
	"employee": {
		"salary of", "salaries of", "everyone's salary", "all salaries", "payroll of",
		"bank account", "bank details", "aadhaar", "pan number", "disciplinary",
	},
	"learner": {
		"salary", "payroll", "bank account", "bank details", "aadhaar", "pan number",
		"appraisal", "disciplinary", "employee records",
	},
	"manager": {
		"bank account", "bank details", "aadhaar", "pan number",
	},
}
