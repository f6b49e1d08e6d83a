package llm

import (
	"fmt"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/config"
)

// NewClient builds the configured provider's chat client.
func NewClient(cfg *config.Config) (Client, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.EmbeddingModel, cfg.MaxResponseTokens), nil
	case config.ProviderYandex:
		return NewYandex(cfg.YandexOAuthToken, cfg.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
}
