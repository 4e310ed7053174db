package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
apis:
  genai:
    api_key: test-key
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, CatalogSourceCSV, cfg.Catalog.Source)
	assert.Equal(t, "data/restaurants.csv", cfg.Catalog.RestaurantsFile)
	assert.Equal(t, "data/cuisines.csv", cfg.Catalog.CuisinesFile)
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.Equal(t, GenAIProviderHTTP, cfg.APIs.GenAI.Provider)
	assert.Equal(t, "gpt-4o", cfg.APIs.GenAI.Model)
	assert.Equal(t, 10, cfg.APIs.GenAI.LabelMaxTokens)
	assert.Equal(t, 200, cfg.APIs.GenAI.SlotMaxTokens)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.NotNil(t, cfg.Workers)
}

func TestLoadFromFile_SeparateTokenLimits(t *testing.T) {
	path := writeConfig(t, `
apis:
  genai:
    api_key: test-key
    label_max_tokens: 4
    slot_max_tokens: 512
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.APIs.GenAI.LabelMaxTokens)
	assert.Equal(t, 512, cfg.APIs.GenAI.SlotMaxTokens)
}

func TestLoadFromFile_RequiresAPIKey(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("APIS_GENAI_API_KEY", "")

	path := writeConfig(t, `
app:
  name: restaurant-agent
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_GENAI_KEY", "from-env")
	path := writeConfig(t, `
apis:
  genai:
    api_key: ${TEST_GENAI_KEY}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.APIs.GenAI.APIKey)
}

func TestLoadFromFile_FallbackKeyVariable(t *testing.T) {
	t.Setenv("APIS_GENAI_API_KEY", "")
	t.Setenv("GENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	path := writeConfig(t, `
server:
  port: 9090
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.APIs.GenAI.APIKey)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, ":9090", cfg.Server.Addr())
}

func TestLoadFromFile_ValidatesCatalogSource(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "unknown source",
			body: `
catalog:
  source: mongo
apis:
  genai:
    api_key: k
`,
			wantErr: "catalog.source",
		},
		{
			name: "postgres without host",
			body: `
catalog:
  source: postgres
apis:
  genai:
    api_key: k
`,
			wantErr: "database.postgres.host",
		},
		{
			name: "elasticsearch without address",
			body: `
catalog:
  source: elasticsearch
apis:
  genai:
    api_key: k
`,
			wantErr: "database.elasticsearch",
		},
		{
			name: "unknown provider",
			body: `
apis:
  genai:
    api_key: k
    provider: carrier-pigeon
`,
			wantErr: "apis.genai.provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWorkerDefaults(t *testing.T) {
	path := writeConfig(t, `
apis:
  genai:
    api_key: k
workers:
  agent-chat:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	w := GetWorkerConfig(cfg, "agent-chat")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)

	assert.False(t, GetWorkerConfig(cfg, "missing").Enabled)
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestLoadFromFile_UnsetPlaceholderIsEmpty(t *testing.T) {
	path := writeConfig(t, `
apis:
  genai:
    api_key: k
database:
  redis:
    password: ${TEST_UNSET_REDIS_PASSWORD}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Database.Redis.Password)
}
