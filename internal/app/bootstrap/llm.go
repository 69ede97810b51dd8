package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/incident-report-ai/internal/config"
	"github.com/wolfman30/incident-report-ai/internal/llm"
	"github.com/wolfman30/incident-report-ai/internal/observability/metrics"
	"github.com/wolfman30/incident-report-ai/pkg/logging"
)

const defaultBedrockModel = "us.anthropic.claude-3-5-haiku-20241022-v1:0"

// BuildLLMClient wires the configured provider, wrapped with metrics, and an
// optional fallback provider.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, m *metrics.LLMMetrics, logger *logging.Logger) (llm.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	primary, err := buildProvider(ctx, cfg.LLMProvider, cfg.LLMModelID, cfg, awsCfg)
	if err != nil {
		return nil, err
	}
	primary = llm.NewInstrumentedClient(primary, cfg.LLMProvider, m)
	logger.Info("llm provider configured", "provider", cfg.LLMProvider, "model", cfg.LLMModelID)

	var fallback llm.Client
	if cfg.LLMFallbackProvider != "" {
		fallback, err = buildProvider(ctx, cfg.LLMFallbackProvider, cfg.LLMFallbackModelID, cfg, awsCfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: fallback: %w", err)
		}
		fallback = llm.NewInstrumentedClient(fallback, cfg.LLMFallbackProvider, m)
		logger.Info("llm fallback configured", "provider", cfg.LLMFallbackProvider, "model", cfg.LLMFallbackModelID)
	}

	return llm.NewFallbackClient(primary, fallback, logger), nil
}

func buildProvider(ctx context.Context, provider, modelID string, cfg *appconfig.Config, awsCfg aws.Config) (llm.Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "bedrock":
		if strings.TrimSpace(modelID) == "" {
			modelID = defaultBedrockModel
		}
		return llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), modelID), nil
	case "openai":
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, modelID)
	case "anthropic":
		return llm.NewAnthropicClient(cfg.AnthropicAPIKey, modelID)
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, modelID)
	default:
		return nil, fmt.Errorf("bootstrap: unknown llm provider %q", provider)
	}
}
