package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"filmwhisper/internal/domain/entity"
)

// buildRecommendPrompt produces the instruction shared by every backend.
// Seed titles come either from the user's search text or from their
// recent watch history.
func buildRecommendPrompt(seedTitles []string, mediaType entity.MediaType, count int) string {
	kind := "movies"
	if mediaType == entity.MediaTypeSeries {
		kind = "TV series"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert %s recommender.\n", kind)
	if len(seedTitles) == 1 {
		fmt.Fprintf(&b, "Recommend up to %d %s matching this request: %q.\n", count, kind, seedTitles[0])
	} else {
		fmt.Fprintf(&b, "A user recently watched: %s.\n", strings.Join(seedTitles, ", "))
		fmt.Fprintf(&b, "Recommend up to %d other %s they would enjoy. Do not repeat titles they watched.\n", count, kind)
	}
	b.WriteString(`Respond ONLY with a JSON object, no markdown, shaped exactly like:
{"recommendations":[{"title":"...","year":2010,"reason":"one short sentence"}],"lang":"en"}
where "lang" is the ISO 639-1 code of the language your response is written in.`)
	return b.String()
}

// parseRecommendation decodes a backend's raw text into the shared shape,
// tolerating markdown code fences, and bounds the list to count.
func parseRecommendation(raw string, count int) (*entity.Recommendation, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var rec entity.Recommendation
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &rec); err != nil {
		return nil, fmt.Errorf("malformed model response: %w", err)
	}
	if rec.Language == "" {
		rec.Language = "en"
	}
	if len(rec.Candidates) > count {
		rec.Candidates = rec.Candidates[:count]
	}
	return &rec, nil
}
