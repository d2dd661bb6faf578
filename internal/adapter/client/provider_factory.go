package client

import (
	"context"

	"filmwhisper/internal/domain/repository"
)

// ProviderFactory builds per-request recommendation backends. A user key
// of the literal "default" substitutes the operator's shared Gemini key,
// matching the behavior of the hosted configure page.
type ProviderFactory struct {
	defaultGeminiKey string
	googleModel      string
	fallbackModel    string
	openAIModel      string
}

func NewProviderFactory(defaultGeminiKey, googleModel, fallbackModel, openAIModel string) *ProviderFactory {
	return &ProviderFactory{
		defaultGeminiKey: defaultGeminiKey,
		googleModel:      googleModel,
		fallbackModel:    fallbackModel,
		openAIModel:      openAIModel,
	}
}

func (f *ProviderFactory) Gemini(ctx context.Context, apiKey string) (repository.Recommender, repository.Recommender, error) {
	if apiKey == "default" {
		apiKey = f.defaultGeminiKey
	}
	primary, err := NewGeminiRecommender(ctx, apiKey, f.googleModel)
	if err != nil {
		return nil, nil, err
	}
	fallback := NewGeminiRecommenderFromClient(primary.client, f.fallbackModel)
	return primary, fallback, nil
}

func (f *ProviderFactory) OpenAI(apiKey string) repository.Recommender {
	return NewOpenAIRecommender(apiKey, f.openAIModel)
}
