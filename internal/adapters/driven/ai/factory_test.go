package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configfile "github.com/driftline/driftline/internal/adapters/driven/config/file"
	"github.com/driftline/driftline/internal/core/ports/driven"
)

func newTestConfig(t *testing.T, values map[string]any) driven.ConfigStore {
	t.Helper()
	cfg, err := configfile.NewConfigStore(t.TempDir())
	require.NoError(t, err)
	for k, v := range values {
		require.NoError(t, cfg.Set(k, v))
	}
	return cfg
}

func TestCreateEmbeddingService_Unconfigured(t *testing.T) {
	cfg := newTestConfig(t, nil)

	svc, err := CreateEmbeddingService(cfg)

	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestCreateEmbeddingService_Ollama(t *testing.T) {
	cfg := newTestConfig(t, map[string]any{
		KeyEmbeddingProvider: ProviderOllama,
		KeyEmbeddingModel:    "nomic-embed-text",
	})

	svc, err := CreateEmbeddingService(cfg)

	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.Equal(t, "nomic-embed-text", svc.ModelName())
}

func TestCreateEmbeddingService_AnthropicRejected(t *testing.T) {
	cfg := newTestConfig(t, map[string]any{
		KeyEmbeddingProvider: ProviderAnthropic,
	})

	svc, err := CreateEmbeddingService(cfg)

	require.Error(t, err)
	assert.Nil(t, svc)
	assert.Contains(t, err.Error(), "does not support embeddings")
}

func TestCreateEmbeddingService_UnknownProvider(t *testing.T) {
	cfg := newTestConfig(t, map[string]any{
		KeyEmbeddingProvider: "bedrock",
	})

	_, err := CreateEmbeddingService(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported embedding provider")
}

func TestCreateLLMService_Unconfigured(t *testing.T) {
	cfg := newTestConfig(t, nil)

	svc, err := CreateLLMService(cfg)

	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestCreateLLMService_AnthropicFromConfigKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := newTestConfig(t, map[string]any{
		KeyLLMProvider: ProviderAnthropic,
		KeyLLMModel:    "claude-3-5-sonnet-latest",
		KeyLLMAPIKey:   "sk-test",
	})

	svc, err := CreateLLMService(cfg)

	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.Equal(t, "claude-3-5-sonnet-latest", svc.ModelName())
}

func TestCreateLLMService_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := newTestConfig(t, map[string]any{
		KeyLLMProvider: ProviderOpenAI,
	})

	_, err := CreateLLMService(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestCreateLLMService_EnvKeyWins(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	cfg := newTestConfig(t, map[string]any{
		KeyLLMProvider: ProviderOpenAI,
	})

	svc, err := CreateLLMService(cfg)

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestValidateConfigs_UnconfiguredIsValid(t *testing.T) {
	cfg := newTestConfig(t, nil)

	assert.NoError(t, ValidateEmbeddingConfig(cfg))
	assert.NoError(t, ValidateLLMConfig(cfg))
}
