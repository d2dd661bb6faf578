package client

import (
	"context"
	"fmt"

	"filmwhisper/internal/domain/entity"

	"google.golang.org/genai"
)

type GeminiRecommender struct {
	client *genai.Client
	model  string
}

// NewGeminiRecommender builds a backend bound to one user's API key.
func NewGeminiRecommender(ctx context.Context, apiKey, model string) (*GeminiRecommender, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiRecommender{client: client, model: model}, nil
}

func NewGeminiRecommenderFromClient(c *genai.Client, model string) *GeminiRecommender {
	return &GeminiRecommender{client: c, model: model}
}

func (g *GeminiRecommender) Recommend(ctx context.Context, seedTitles []string, mediaType entity.MediaType, count int) (*entity.Recommendation, error) {
	prompt := buildRecommendPrompt(seedTitles, mediaType, count)

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generation: %w", err)
	}
	return parseRecommendation(result.Text(), count)
}
