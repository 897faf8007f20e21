package factory

import (
	"fmt"

	"github.com/kinhai-collab/Mira-sub001/pkg/llm"
	"github.com/kinhai-collab/Mira-sub001/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "openai":
		if modelName == "" {
			modelName = "gpt-4o-mini" // Default
		}
		return openai.NewOpenAIProvider(apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
