package usecase

import (
	"context"
	"errors"
	"log"

	"filmwhisper/internal/domain/entity"
	"filmwhisper/internal/domain/repository"
)

// SemanticCache is the proximity tier: it embeds the normalized query and
// looks for a previously answered query within the configured similarity
// threshold. Cached values are fully resolved, so a hit skips both the
// LLM call and metadata resolution.
type SemanticCache struct {
	embedder  repository.Embedder
	store     repository.VectorStore
	threshold float32
}

func NewSemanticCache(embedder repository.Embedder, store repository.VectorStore, threshold float32) *SemanticCache {
	return &SemanticCache{embedder: embedder, store: store, threshold: threshold}
}

// Lookup returns the cached result list and its similarity score.
// Any embedder or store failure degrades to a miss; an uncached answer
// is always preferable to a failed request.
func (s *SemanticCache) Lookup(ctx context.Context, query string, mediaType entity.MediaType) ([]entity.Meta, float32, bool) {
	vector, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		log.Printf("[SEMANTIC] Embedding failed, treating as miss: %v", err)
		return nil, 0, false
	}

	metas, score, err := s.store.Search(ctx, vector, s.threshold, mediaType)
	if err != nil {
		if !errors.Is(err, entity.ErrCacheMiss) {
			log.Printf("[SEMANTIC] Lookup failed, treating as miss: %v", err)
		}
		return nil, 0, false
	}
	log.Printf("[SEMANTIC] Proximity hit for %q (score %.3f)", query, score)
	return metas, score, true
}

// Index records the query alongside its fully resolved answer so that
// near-duplicate future queries short-circuit the LLM call.
func (s *SemanticCache) Index(ctx context.Context, query string, mediaType entity.MediaType, metas []entity.Meta) {
	vector, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		log.Printf("[SEMANTIC] Embedding failed, skipping index of %q: %v", query, err)
		return
	}
	if err := s.store.Save(ctx, query, mediaType, metas, vector); err != nil {
		log.Printf("[SEMANTIC] Index of %q failed: %v", query, err)
	}
}
