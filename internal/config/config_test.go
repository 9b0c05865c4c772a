package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/askhr/askhr/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPort, cfg.Port)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, config.DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, config.DefaultLLMTimeout, cfg.LLMTimeout)
	assert.Equal(t, "employee", cfg.DefaultRole)
	assert.True(t, cfg.EnableAuth)
	assert.Contains(t, cfg.RoleRestrictions, "learner")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ASKHR_PORT", "9100")
	t.Setenv("ASKHR_API_KEYS", "alpha, beta")
	t.Setenv("HR_API_TOKEN", "tok-1")
	t.Setenv("INSTITUTION_ID", "42")
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("HRMS_API_BASE_URL", "https://hr.example.com/")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.APIKeys)
	assert.Equal(t, "tok-1", cfg.APIToken)
	assert.Equal(t, "42", cfg.InstitutionID)
	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
	assert.Equal(t, "https://hr.example.com", cfg.DataAPIBases()["hrms"])
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "askhr.yaml")
	body := []byte("port: 8088\nlms_api_base_url: https://lms.example.com\nrole_restrictions:\n  intern:\n    - payroll\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))
	t.Setenv("ASKHR_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Port)
	assert.Equal(t, "https://lms.example.com", cfg.LMSAPIBaseURL)
	assert.Equal(t, []string{"payroll"}, cfg.RoleRestrictions["intern"])
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "cohere")
	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm_provider")
}

func TestLoadRejectsAttemptsAboveLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "askhr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_attempts: 3\n"), 0o600))
	t.Setenv("ASKHR_CONFIG", path)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_attempts")
}

func TestValidateMaxAttempts(t *testing.T) {
	for _, n := range []int{0, 3, 5} {
		cfg, err := config.Load()
		require.NoError(t, err)
		cfg.MaxAttempts = n
		assert.Error(t, cfg.Validate(), "max_attempts=%d", n)
	}
}

func TestValidateElasticsearchNeedsAddresses(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ENABLED", "true")
	_, err := config.Load()
	require.Error(t, err)
}
