package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"filmwhisper/internal/domain/entity"
	"filmwhisper/internal/domain/repository"

	"github.com/sourcegraph/conc/iter"
)

// Resolver turns LLM candidates into renderable Meta records, with a
// per-title exact-cache layer in front of the metadata provider.
type Resolver struct {
	source repository.MetadataSource
	cache  repository.ResultCache
}

func NewResolver(source repository.MetadataSource, cache repository.ResultCache) *Resolver {
	return &Resolver{source: source, cache: cache}
}

func titleKey(mediaType entity.MediaType, title string) string {
	return fmt.Sprintf("%s:name:%s", mediaType, strings.ToLower(strings.TrimSpace(title)))
}

func idKey(mediaType entity.MediaType, id string) string {
	return fmt.Sprintf("%s:%s", mediaType, id)
}

// Resolve returns the Meta for one title plus whether it came from cache
// and whether a cache write happened. Provider failures become the
// unresolved sentinel (empty id) rather than an error, so one bad title
// can never abort a batch. Records without a poster are not cached; an
// un-posterable record is not reusable in a client UI.
func (r *Resolver) Resolve(ctx context.Context, title, language string, mediaType entity.MediaType, tmdbKey string) (meta entity.Meta, fromCache, cacheSet bool) {
	key := titleKey(mediaType, title)

	if r.cache != nil {
		if blob, err := r.cache.Get(ctx, key); err == nil {
			if err := json.Unmarshal(blob, &meta); err == nil {
				return meta, true, false
			}
		} else if !errors.Is(err, entity.ErrCacheMiss) {
			log.Printf("[RESOLVER] Cache read for %q failed, treating as miss: %v", title, err)
		}
	}

	meta, err := r.source.FindByTitle(ctx, title, language, mediaType, tmdbKey)
	if err != nil {
		log.Printf("[RESOLVER] Could not resolve %q: %v", title, err)
		return entity.Meta{Type: mediaType, PosterShape: "poster"}, false, false
	}
	if !meta.Resolved() || meta.Poster == nil {
		return meta, false, false
	}

	if r.cache != nil {
		blob, err := json.Marshal(meta)
		if err == nil {
			// No TTL on per-title metadata: canonical ids and posters
			// outlive any response cache.
			if err := r.cache.Set(ctx, key, blob, 0); err != nil {
				log.Printf("[RESOLVER] Cache write for %q failed: %v", title, err)
				return meta, false, false
			}
			if err := r.cache.Set(ctx, idKey(mediaType, meta.ID), blob, 0); err != nil {
				log.Printf("[RESOLVER] Cache write for %s failed: %v", meta.ID, err)
			}
			cacheSet = true
		}
	}
	return meta, false, cacheSet
}

// ResolveAll fans out over the candidates concurrently, waits for every
// lookup to settle, and returns only the resolved records, in candidate
// order.
func (r *Resolver) ResolveAll(ctx context.Context, candidates []entity.Candidate, language string, mediaType entity.MediaType, tmdbKey string) []entity.Meta {
	settled := iter.Map(candidates, func(c *entity.Candidate) entity.Meta {
		meta, _, _ := r.Resolve(ctx, c.Title, language, mediaType, tmdbKey)
		return meta
	})

	metas := make([]entity.Meta, 0, len(settled))
	for _, m := range settled {
		if m.Resolved() {
			metas = append(metas, m)
		}
	}
	return metas
}
