package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"filmwhisper/internal/domain/entity"
	"filmwhisper/internal/domain/repository"

	"github.com/avast/retry-go/v4"
)

// ResilientRecommender retries the primary model on transient provider
// errors, then tries the fallback model once before giving up. The
// orchestrator absorbs whatever error still escapes, so a flaky LLM
// degrades one request instead of failing it.
type ResilientRecommender struct {
	primary  repository.Recommender
	fallback repository.Recommender // usually a faster/cheaper model
	attempts uint
	delay    time.Duration
	timeout  time.Duration
}

func NewResilientRecommender(primary, fallback repository.Recommender) *ResilientRecommender {
	return &ResilientRecommender{
		primary:  primary,
		fallback: fallback,
		attempts: 3,
		delay:    500 * time.Millisecond,
		timeout:  25 * time.Second, // global cap so one slow request can't hang the pipeline
	}
}

func (r *ResilientRecommender) Recommend(ctx context.Context, seedTitles []string, mediaType entity.MediaType, count int) (*entity.Recommendation, error) {
	resCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rec, err := retry.DoWithData(
		func() (*entity.Recommendation, error) {
			return r.primary.Recommend(resCtx, seedTitles, mediaType, count)
		},
		retry.Context(resCtx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(100*time.Millisecond),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return rec, nil
	}
	if r.fallback == nil {
		return nil, err
	}

	log.Printf("[RELIABILITY] Primary model exhausted, switching to fallback: %v", err)
	rec, fbErr := r.fallback.Recommend(resCtx, seedTitles, mediaType, count)
	if fbErr != nil {
		return nil, fmt.Errorf("both primary and fallback failed: %w", fbErr)
	}
	return rec, nil
}

// Retry on rate limits (429) and server errors (5xx); a malformed
// response or bad key will not get better by asking again.
func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "500") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "deadline")
}
