package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/dyike/MomentumGo/config"
)

var ErrMissingAPIKey = errors.New("llm api key not configured")

// NewChatModel creates the tool-calling model for cfg.LLMProvider.
func NewChatModel(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	apiKey := strings.TrimSpace(cfg.APIKey())

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
		}
		var maxTokens *int
		if cfg.MaxTokens > 0 {
			maxTokens = &cfg.MaxTokens
		}
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.BackendURL,
			APIKey:    apiKey,
			Model:     cfg.QuickThinkLLM,
			MaxTokens: maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI model: %w", err)
		}
		return chatModel, nil

	case config.ProviderDeepSeek:
		if apiKey == "" {
			return nil, fmt.Errorf("%w: set DEEPSEEK_API_KEY", ErrMissingAPIKey)
		}
		chatModel, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			BaseURL:   cfg.BackendURL,
			APIKey:    apiKey,
			Model:     cfg.QuickThinkLLM,
			MaxTokens: cfg.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create DeepSeek model: %w", err)
		}
		return chatModel, nil
	}

	return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
}
