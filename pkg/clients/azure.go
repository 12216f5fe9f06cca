package clients

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/mikeboe/knowledge-aggregator/pkg/config"
)

// NewAzureOpenAI builds a langchaingo model backed by an Azure OpenAI
// deployment. The endpoint, key, API version and deployment name all come
// from the configuration; nothing is read from the environment here.
func NewAzureOpenAI(cfg config.Config) (*openai.LLM, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("azure openai configuration: %w", err)
	}

	llm, err := openai.New(
		openai.WithAPIType(openai.APITypeAzure),
		openai.WithToken(cfg.AzureOpenAIKey),
		openai.WithBaseURL(cfg.AzureOpenAIEndpoint),
		openai.WithAPIVersion(cfg.AzureOpenAIAPIVersion),
		openai.WithModel(cfg.AzureOpenAIDeployment),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init azure openai client: %w", err)
	}

	return llm, nil
}
