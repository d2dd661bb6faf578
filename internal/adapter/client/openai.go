package client

import (
	"context"
	"fmt"

	"filmwhisper/internal/domain/entity"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIRecommender struct {
	client *openai.Client
	model  string
}

// NewOpenAIRecommender builds a backend bound to one user's API key.
func NewOpenAIRecommender(apiKey, model string) *OpenAIRecommender {
	return &OpenAIRecommender{client: openai.NewClient(apiKey), model: model}
}

func (o *OpenAIRecommender) Recommend(ctx context.Context, seedTitles []string, mediaType entity.MediaType, count int) (*entity.Recommendation, error) {
	prompt := buildRecommendPrompt(seedTitles, mediaType, count)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	return parseRecommendation(resp.Choices[0].Message.Content, count)
}
