package repository

import (
	"context"
	"time"

	"filmwhisper/internal/domain/entity"
)

// ResultCache is the exact-match tier: key equality, per-entry TTL.
// Implementations must return entity.ErrCacheMiss for absent keys;
// the pipeline treats transport failures as misses too.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// VectorStore is the semantic tier's backing index. Vectors are matched
// by cosine similarity against a score threshold; Reset drops the whole
// index on the maintenance schedule.
type VectorStore interface {
	Search(ctx context.Context, vector []float32, threshold float32, mediaType entity.MediaType) ([]entity.Meta, float32, error)
	Save(ctx context.Context, query string, mediaType entity.MediaType, metas []entity.Meta, vector []float32) error
	Reset(ctx context.Context) error
}

// Embedder turns normalized query text into a vector for the semantic tier.
type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Recommender is one LLM backend. Implementations exist per provider
// (Gemini, OpenAI); selection happens by which key the user supplied.
type Recommender interface {
	Recommend(ctx context.Context, seedTitles []string, mediaType entity.MediaType, count int) (*entity.Recommendation, error)
}

// RecommenderFactory builds backends bound to a single user's API key.
// The Gemini path returns a cheaper fallback model alongside the primary.
type RecommenderFactory interface {
	Gemini(ctx context.Context, apiKey string) (primary, fallback Recommender, err error)
	OpenAI(apiKey string) Recommender
}

// KeyVault stores the per-user credential bundle, encrypted at rest.
// Put always overwrites the whole bundle; callers needing a partial
// update must read-modify-write.
type KeyVault interface {
	Get(ctx context.Context, userID string) (*entity.Keys, error)
	Put(ctx context.Context, userID string, keys *entity.Keys) error
}

// MetadataSource resolves a candidate title against the metadata provider.
type MetadataSource interface {
	FindByTitle(ctx context.Context, title, language string, mediaType entity.MediaType, apiKey string) (entity.Meta, error)
}

// TrendingSource lists the week's most popular titles, fully resolved.
type TrendingSource interface {
	Trending(ctx context.Context, mediaType entity.MediaType, apiKey string) ([]entity.Meta, error)
}

// HistorySource supplies the user's recently watched titles and the
// OAuth token exchange for the refresh cycle.
type HistorySource interface {
	RecentWatches(ctx context.Context, accessToken string, mediaType entity.MediaType, limit int) ([]string, error)
	RefreshToken(ctx context.Context, refreshToken string) (access, refresh string, expiresAt int64, err error)
}

// PosterSource optionally swaps posters for higher quality artwork.
// A missing or invalid key is a no-op, never an error.
type PosterSource interface {
	Apply(ctx context.Context, metas []entity.Meta, rpdbKey string) []entity.Meta
}
