package usecase

import (
	"context"

	"filmwhisper/internal/domain/entity"
	"filmwhisper/internal/domain/repository"
)

// ProviderSelector picks the LLM backend by which capability key the
// user supplied: a Google-style key wins over an OpenAI-style key, and
// neither means no backend at all — the caller short-circuits to an
// empty result rather than guessing a default provider.
type ProviderSelector struct {
	factory repository.RecommenderFactory
}

func NewProviderSelector(factory repository.RecommenderFactory) *ProviderSelector {
	return &ProviderSelector{factory: factory}
}

func (s *ProviderSelector) Select(ctx context.Context, keys *entity.Keys) (repository.Recommender, error) {
	switch {
	case keys.GoogleKey != "":
		primary, fallback, err := s.factory.Gemini(ctx, keys.GoogleKey)
		if err != nil {
			return nil, err
		}
		return NewResilientRecommender(primary, fallback), nil
	case keys.OpenAIKey != "":
		return s.factory.OpenAI(keys.OpenAIKey), nil
	default:
		return nil, entity.ErrNoProviderConfigured
	}
}
