// Package ai provides factory functions for creating AI service adapters
// from configuration. Providers are optional: an unconfigured provider
// yields a nil service and the core degrades per its documented
// nil-service behaviour.
package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	ollamaembed "github.com/driftline/driftline/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/driftline/driftline/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/driftline/driftline/internal/adapters/driven/llm/anthropic"
	openaillm "github.com/driftline/driftline/internal/adapters/driven/llm/openai"
	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Provider configuration keys read from the config store.
const (
	KeyEmbeddingProvider = "embedding.provider"
	KeyEmbeddingModel    = "embedding.model"
	KeyEmbeddingBaseURL  = "embedding.base_url"
	KeyEmbeddingAPIKey   = "embedding.api_key"
	KeyLLMProvider       = "llm.provider"
	KeyLLMModel          = "llm.model"
	KeyLLMBaseURL        = "llm.base_url"
	KeyLLMAPIKey         = "llm.api_key"
)

// Known provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

// CreateEmbeddingService creates the configured embedding service.
// Returns (nil, nil) when no provider is configured.
func CreateEmbeddingService(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := cfg.GetString(KeyEmbeddingProvider)
	switch provider {
	case "":
		return nil, nil

	case ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: cfg.GetString(KeyEmbeddingBaseURL),
			Model:   cfg.GetString(KeyEmbeddingModel),
		}), nil

	case ProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  apiKey(cfg, "OPENAI_API_KEY", KeyEmbeddingAPIKey),
			BaseURL: cfg.GetString(KeyEmbeddingBaseURL),
			Model:   cfg.GetString(KeyEmbeddingModel),
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case ProviderAnthropic:
		// Anthropic does not support embeddings.
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

// CreateLLMService creates the configured LLM service.
// Returns (nil, nil) when no provider is configured.
func CreateLLMService(cfg driven.ConfigStore) (driven.LLMService, error) {
	provider := cfg.GetString(KeyLLMProvider)
	switch provider {
	case "":
		return nil, nil

	case ProviderAnthropic:
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  apiKey(cfg, "ANTHROPIC_API_KEY", KeyLLMAPIKey),
			BaseURL: cfg.GetString(KeyLLMBaseURL),
			Model:   cfg.GetString(KeyLLMModel),
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case ProviderOpenAI:
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  apiKey(cfg, "OPENAI_API_KEY", KeyLLMAPIKey),
			BaseURL: cfg.GetString(KeyLLMBaseURL),
			Model:   cfg.GetString(KeyLLMModel),
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// ValidateEmbeddingConfig creates the configured embedding service and
// pings it. A missing provider validates trivially.
func ValidateEmbeddingConfig(cfg driven.ConfigStore) error {
	svc, err := CreateEmbeddingService(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// ValidateLLMConfig creates the configured LLM service and pings it.
// A missing provider validates trivially.
func ValidateLLMConfig(cfg driven.ConfigStore) error {
	svc, err := CreateLLMService(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return nil
}

// apiKey resolves an API key from the environment first, then config.
func apiKey(cfg driven.ConfigStore, envVar, configKey string) string {
	if key := os.Getenv(envVar); key != "" {
		return key
	}
	return cfg.GetString(configKey)
}
