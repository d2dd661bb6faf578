package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"filmwhisper/internal/domain/entity"
	"filmwhisper/internal/domain/repository"
)

const responseTTL = time.Hour

// Orchestrator composes the two request flows: free-text search and
// recent-watch-history recommendations. Its failure policy is skewed
// toward "return the best answer obtainable": any single external
// dependency failing degrades its own contribution, and an empty result
// list is a valid answer, not an error. Only malformed requests and
// unreachable infrastructure fail a request outright.
//
// semantic and cache may be nil when caching is disabled; both tiers are
// then skipped and every request runs the full pipeline.
type Orchestrator struct {
	semantic    *SemanticCache
	cache       repository.ResultCache
	resolver    *Resolver
	selector    *ProviderSelector
	refresher   *RefreshManager
	history     repository.HistorySource
	trending    repository.TrendingSource
	posters     repository.PosterSource
	searchCount int
}

func NewOrchestrator(
	semantic *SemanticCache,
	cache repository.ResultCache,
	resolver *Resolver,
	selector *ProviderSelector,
	refresher *RefreshManager,
	history repository.HistorySource,
	trending repository.TrendingSource,
	posters repository.PosterSource,
	searchCount int,
) *Orchestrator {
	return &Orchestrator{
		semantic:    semantic,
		cache:       cache,
		resolver:    resolver,
		selector:    selector,
		refresher:   refresher,
		history:     history,
		trending:    trending,
		posters:     posters,
		searchCount: searchCount,
	}
}

func searchKey(mediaType entity.MediaType, query string) string {
	return fmt.Sprintf("%s:search:%s", mediaType, query)
}

func recentKey(userID string, mediaType entity.MediaType) string {
	return fmt.Sprintf("user:%s:recent-%s", userID, mediaType)
}

func trendingKey(mediaType entity.MediaType) string {
	return fmt.Sprintf("%s:trending", mediaType)
}

// Search turns free-text into recommendations: semantic tier, then exact
// tier, then the full generate-resolve-decorate pipeline.
func (o *Orchestrator) Search(ctx context.Context, query string, mediaType entity.MediaType, keys *entity.Keys) ([]entity.Meta, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || !mediaType.Valid() {
		return nil, entity.ErrInvalidRequest
	}
	if keys == nil || keys.TMDBKey == "" || !keys.HasLLMKey() {
		log.Printf("[PIPELINE] Missing required keys for search, degrading to empty result")
		return []entity.Meta{}, nil
	}

	if o.semantic != nil {
		if metas, _, ok := o.semantic.Lookup(ctx, query, mediaType); ok {
			return o.posters.Apply(ctx, metas, keys.RPDBKey), nil
		}
	}
	if metas, ok := o.cachedResult(ctx, searchKey(mediaType, query)); ok {
		return o.posters.Apply(ctx, metas, keys.RPDBKey), nil
	}

	rec, err := o.recommend(ctx, []string{query}, mediaType, keys)
	if err != nil {
		return []entity.Meta{}, nil
	}

	metas := o.resolver.ResolveAll(ctx, rec.Candidates, rec.Language, mediaType, keys.TMDBKey)
	if len(metas) > 0 {
		o.writeCache(ctx, searchKey(mediaType, query), metas)
		if o.semantic != nil {
			o.semantic.Index(ctx, query, mediaType, metas)
		}
	}
	return o.posters.Apply(ctx, metas, keys.RPDBKey), nil
}

// RecentlyWatched recommends from the user's watch history. The response
// is cached per user, so the cache is consulted before the OAuth refresh:
// a hit needs no watch-history call at all.
func (o *Orchestrator) RecentlyWatched(ctx context.Context, userID string, mediaType entity.MediaType, keys *entity.Keys) ([]entity.Meta, error) {
	if userID == "" || !mediaType.Valid() {
		return nil, entity.ErrInvalidRequest
	}
	if keys == nil || keys.TraktKey == "" || keys.TMDBKey == "" || !keys.HasLLMKey() {
		log.Printf("[PIPELINE] Missing required keys for watch-history flow, degrading to empty result")
		return []entity.Meta{}, nil
	}

	if metas, ok := o.cachedResult(ctx, recentKey(userID, mediaType)); ok {
		return o.posters.Apply(ctx, metas, keys.RPDBKey), nil
	}

	keys, _, err := o.refresher.RefreshIfExpired(ctx, userID, keys)
	if err != nil {
		log.Printf("[PIPELINE] Watch-history unavailable for user %s: %v", userID, err)
		return []entity.Meta{}, nil
	}

	titles, err := o.history.RecentWatches(ctx, keys.TraktKey, mediaType, o.searchCount)
	if err != nil {
		log.Printf("[PIPELINE] Fetching watch history for user %s failed: %v", userID, err)
		return []entity.Meta{}, nil
	}
	if len(titles) == 0 {
		return []entity.Meta{}, nil
	}

	rec, err := o.recommend(ctx, titles, mediaType, keys)
	if err != nil {
		return []entity.Meta{}, nil
	}

	metas := o.resolver.ResolveAll(ctx, rec.Candidates, rec.Language, mediaType, keys.TMDBKey)
	if len(metas) > 0 {
		o.writeCache(ctx, recentKey(userID, mediaType), metas)
	}
	return o.posters.Apply(ctx, metas, keys.RPDBKey), nil
}

// Trending serves the week's most popular titles straight from the
// metadata provider; no LLM key is involved. The list is shared across
// users, so it is cached under the media type alone.
func (o *Orchestrator) Trending(ctx context.Context, mediaType entity.MediaType, keys *entity.Keys) ([]entity.Meta, error) {
	if !mediaType.Valid() {
		return nil, entity.ErrInvalidRequest
	}
	if keys == nil || keys.TMDBKey == "" {
		log.Printf("[PIPELINE] Missing metadata key for trending, degrading to empty result")
		return []entity.Meta{}, nil
	}

	if metas, ok := o.cachedResult(ctx, trendingKey(mediaType)); ok {
		return o.posters.Apply(ctx, metas, keys.RPDBKey), nil
	}

	metas, err := o.trending.Trending(ctx, mediaType, keys.TMDBKey)
	if err != nil {
		log.Printf("[PIPELINE] Fetching trending %s failed: %v", mediaType, err)
		return []entity.Meta{}, nil
	}
	if len(metas) > 0 {
		o.writeCache(ctx, trendingKey(mediaType), metas)
	}
	return o.posters.Apply(ctx, metas, keys.RPDBKey), nil
}

func (o *Orchestrator) recommend(ctx context.Context, seeds []string, mediaType entity.MediaType, keys *entity.Keys) (*entity.Recommendation, error) {
	provider, err := o.selector.Select(ctx, keys)
	if err != nil {
		log.Printf("[PIPELINE] No usable recommendation provider: %v", err)
		return nil, err
	}
	rec, err := provider.Recommend(ctx, seeds, mediaType, o.searchCount)
	if err != nil {
		log.Printf("[PIPELINE] Recommendation generation failed: %v", err)
		return nil, err
	}
	return rec, nil
}

// cachedResult reads the exact tier. Transport failures are logged and
// treated as a miss; the pipeline still produces a correct, merely
// uncached, answer.
func (o *Orchestrator) cachedResult(ctx context.Context, key string) ([]entity.Meta, bool) {
	if o.cache == nil {
		return nil, false
	}
	blob, err := o.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, entity.ErrCacheMiss) {
			log.Printf("[PIPELINE] Cache read for %s failed, treating as miss: %v", key, err)
		}
		return nil, false
	}
	var metas []entity.Meta
	if err := json.Unmarshal(blob, &metas); err != nil {
		log.Printf("[PIPELINE] Corrupt cache entry at %s, treating as miss: %v", key, err)
		return nil, false
	}
	return metas, true
}

// writeCache stores a fully resolved result list. The pipeline never
// caches a payload that still has unresolved records; callers filter
// first.
func (o *Orchestrator) writeCache(ctx context.Context, key string, metas []entity.Meta) {
	if o.cache == nil {
		return
	}
	blob, err := json.Marshal(metas)
	if err != nil {
		return
	}
	if err := o.cache.Set(ctx, key, blob, responseTTL); err != nil {
		log.Printf("[PIPELINE] Cache write for %s failed: %v", key, err)
	}
}
