package client

import (
	"strings"
	"testing"

	"filmwhisper/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecommendationToleratesCodeFences(t *testing.T) {
	raw := "```json\n{\"recommendations\":[{\"title\":\"Moon\",\"year\":2009,\"reason\":\"quiet sci-fi\"}],\"lang\":\"en\"}\n```"
	rec, err := parseRecommendation(raw, 20)
	require.NoError(t, err)
	require.Len(t, rec.Candidates, 1)
	assert.Equal(t, "Moon", rec.Candidates[0].Title)
	assert.Equal(t, 2009, rec.Candidates[0].Year)
	assert.Equal(t, "en", rec.Language)
}

func TestParseRecommendationBoundsCandidateCount(t *testing.T) {
	raw := `{"recommendations":[{"title":"A"},{"title":"B"},{"title":"C"}],"lang":"de"}`
	rec, err := parseRecommendation(raw, 2)
	require.NoError(t, err)
	assert.Len(t, rec.Candidates, 2)
	assert.Equal(t, "de", rec.Language)
}

func TestParseRecommendationDefaultsLanguage(t *testing.T) {
	rec, err := parseRecommendation(`{"recommendations":[{"title":"A"}]}`, 5)
	require.NoError(t, err)
	assert.Equal(t, "en", rec.Language)
}

func TestParseRecommendationRejectsProse(t *testing.T) {
	_, err := parseRecommendation("Sure! Here are some movies you might like:", 5)
	assert.Error(t, err)
}

func TestBuildRecommendPromptMentionsSeedsAndCount(t *testing.T) {
	prompt := buildRecommendPrompt([]string{"Heat", "Ronin"}, entity.MediaTypeMovie, 10)
	assert.True(t, strings.Contains(prompt, "Heat, Ronin"))
	assert.True(t, strings.Contains(prompt, "10"))
	assert.True(t, strings.Contains(prompt, `"lang"`))
}
