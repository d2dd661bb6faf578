package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"filmwhisper/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orchFixture struct {
	cache    *fakeCache
	vector   *fakeVectorStore
	source   *fakeMetadataSource
	gemini   *fakeRecommender
	history  *fakeHistory
	trending *fakeTrending
	vault    *fakeVault
	posters  *fakePosters
	orch     *Orchestrator
}

func newOrchFixture() *orchFixture {
	f := &orchFixture{
		cache:    newFakeCache(),
		vector:   &fakeVectorStore{},
		source:   &fakeMetadataSource{metas: map[string]entity.Meta{}},
		gemini:   &fakeRecommender{},
		history:  &fakeHistory{},
		trending: &fakeTrending{},
		vault:    newFakeVault(),
		posters:  &fakePosters{},
	}
	semantic := NewSemanticCache(&fakeEmbedder{vec: []float32{0.1, 0.2}}, f.vector, 0.95)
	resolver := NewResolver(f.source, f.cache)
	selector := NewProviderSelector(&fakeFactory{gemini: f.gemini, openAI: &fakeRecommender{}})
	refresher := NewRefreshManager(f.history, f.vault)
	f.orch = NewOrchestrator(semantic, f.cache, resolver, selector, refresher, f.history, f.trending, f.posters, 20)
	return f
}

func userKeys() *entity.Keys {
	return &entity.Keys{GoogleKey: "g-key", TMDBKey: "t-key"}
}

func TestSearchFullPipeline(t *testing.T) {
	f := newOrchFixture()
	f.gemini.rec = &entity.Recommendation{
		Language: "en",
		Candidates: []entity.Candidate{
			{Title: "Interstellar", Reason: "epic space journey"},
			{Title: "The Martian", Reason: "stranded astronaut"},
			{Title: "Gravity", Reason: "orbital survival"},
		},
	}
	f.source.metas = map[string]entity.Meta{
		"Interstellar": {ID: "tt0816692", Name: "Interstellar", Type: entity.MediaTypeMovie, Poster: posterURL("a.jpg")},
		"The Martian":  {ID: "tt3659388", Name: "The Martian", Type: entity.MediaTypeMovie, Poster: posterURL("b.jpg")},
		"Gravity":      {ID: "tt1454468", Name: "Gravity", Type: entity.MediaTypeMovie, Poster: posterURL("c.jpg")},
	}

	metas, err := f.orch.Search(context.Background(), "Space Adventure", entity.MediaTypeMovie, userKeys())
	require.NoError(t, err)
	require.Len(t, metas, 3)

	// Every resolved title lands under its name key.
	assert.Contains(t, f.cache.data, "movie:name:interstellar")
	assert.Contains(t, f.cache.data, "movie:name:the martian")
	assert.Contains(t, f.cache.data, "movie:name:gravity")

	// The full response is cached under the normalized query with the
	// response TTL, and exactly one semantic index entry exists.
	assert.Contains(t, f.cache.data, "movie:search:space adventure")
	assert.Equal(t, time.Hour, f.cache.ttls["movie:search:space adventure"])
	require.Len(t, f.vector.entries, 1)
	assert.Equal(t, "space adventure", f.vector.entries[0].query)

	assert.Equal(t, 1, f.posters.calls)
}

func TestSearchMissingKeysDegradesBeforeAnyCall(t *testing.T) {
	f := newOrchFixture()

	metas, err := f.orch.Search(context.Background(), "space", entity.MediaTypeMovie, &entity.Keys{TMDBKey: "t"})
	require.NoError(t, err)
	assert.Empty(t, metas)
	assert.Zero(t, f.gemini.calls)
	assert.Empty(t, f.source.calls)
}

func TestSearchMalformedRequestIsClientError(t *testing.T) {
	f := newOrchFixture()

	_, err := f.orch.Search(context.Background(), "   ", entity.MediaTypeMovie, userKeys())
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)

	_, err = f.orch.Search(context.Background(), "space", "documentary", userKeys())
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)
}

func TestSearchSemanticHitSkipsGenerationAndResolution(t *testing.T) {
	f := newOrchFixture()
	f.vector.similarity = 0.97
	f.vector.entries = []vectorEntry{{
		query:     "space adventure",
		mediaType: entity.MediaTypeMovie,
		metas:     []entity.Meta{{ID: "tt0816692", Name: "Interstellar", Type: entity.MediaTypeMovie}},
	}}

	metas, err := f.orch.Search(context.Background(), "space adventures", entity.MediaTypeMovie, userKeys())
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Zero(t, f.gemini.calls)
	assert.Empty(t, f.source.calls)
}

func TestSearchBelowThresholdRunsFullPipeline(t *testing.T) {
	f := newOrchFixture()
	// Stored entry similarity 0.80 against threshold 0.95: a miss.
	f.vector.similarity = 0.80
	f.vector.entries = []vectorEntry{{
		query:     "space adventure",
		mediaType: entity.MediaTypeMovie,
		metas:     []entity.Meta{{ID: "tt0816692"}},
	}}
	f.gemini.rec = &entity.Recommendation{Language: "en", Candidates: []entity.Candidate{{Title: "Moon"}}}
	f.source.metas = map[string]entity.Meta{
		"Moon": {ID: "tt1182345", Name: "Moon", Type: entity.MediaTypeMovie, Poster: posterURL("m.jpg")},
	}

	metas, err := f.orch.Search(context.Background(), "space adventure", entity.MediaTypeMovie, userKeys())
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, 1, f.gemini.calls)
}

func TestSearchExactCacheHitSkipsGeneration(t *testing.T) {
	f := newOrchFixture()
	cached := []entity.Meta{{ID: "tt0078748", Name: "Alien", Type: entity.MediaTypeMovie}}
	blob, err := json.Marshal(cached)
	require.NoError(t, err)
	f.cache.data["movie:search:scary space movie"] = blob

	metas, err := f.orch.Search(context.Background(), "Scary Space Movie", entity.MediaTypeMovie, userKeys())
	require.NoError(t, err)
	assert.Equal(t, cached, metas)
	assert.Zero(t, f.gemini.calls)
}

func TestSearchProviderFailureDegradesToEmptySuccess(t *testing.T) {
	f := newOrchFixture()
	f.gemini.err = errors.New("model overloaded")

	metas, err := f.orch.Search(context.Background(), "space", entity.MediaTypeMovie, userKeys())
	require.NoError(t, err)
	assert.Empty(t, metas)
	assert.Empty(t, f.cache.data, "a failed generation must not be cached")
}

func TestSearchAllFailedFanOutIsStillSuccessful(t *testing.T) {
	f := newOrchFixture()
	f.gemini.rec = &entity.Recommendation{Language: "en", Candidates: []entity.Candidate{
		{Title: "Nope One"}, {Title: "Nope Two"},
	}}
	// fakeMetadataSource fails every unknown title.

	metas, err := f.orch.Search(context.Background(), "space", entity.MediaTypeMovie, userKeys())
	require.NoError(t, err)
	assert.Empty(t, metas)
	assert.NotContains(t, f.cache.data, "movie:search:space")
	assert.Empty(t, f.vector.entries, "an empty result is never indexed")
}

func TestTrendingFullPipeline(t *testing.T) {
	f := newOrchFixture()
	f.trending.metas = map[entity.MediaType][]entity.Meta{
		entity.MediaTypeMovie: {
			{ID: "tt15398776", Name: "Oppenheimer", Type: entity.MediaTypeMovie, Poster: posterURL("o.jpg")},
			{ID: "tt6166392", Name: "Wonka", Type: entity.MediaTypeMovie, Poster: posterURL("w.jpg")},
		},
	}

	metas, err := f.orch.Trending(context.Background(), entity.MediaTypeMovie, userKeys())
	require.NoError(t, err)
	require.Len(t, metas, 2)

	assert.Contains(t, f.cache.data, "movie:trending")
	assert.Equal(t, time.Hour, f.cache.ttls["movie:trending"])
	assert.Equal(t, 1, f.posters.calls)
}

func TestTrendingNeedsNoLLMKey(t *testing.T) {
	f := newOrchFixture()
	f.trending.metas = map[entity.MediaType][]entity.Meta{
		entity.MediaTypeSeries: {{ID: "tt4643084", Name: "Counterpart", Type: entity.MediaTypeSeries}},
	}

	metas, err := f.orch.Trending(context.Background(), entity.MediaTypeSeries, &entity.Keys{TMDBKey: "t-key"})
	require.NoError(t, err)
	assert.Len(t, metas, 1)
}

func TestTrendingCacheHitSkipsProvider(t *testing.T) {
	f := newOrchFixture()
	cached := []entity.Meta{{ID: "tt15398776", Name: "Oppenheimer", Type: entity.MediaTypeMovie}}
	blob, err := json.Marshal(cached)
	require.NoError(t, err)
	f.cache.data["movie:trending"] = blob

	metas, err := f.orch.Trending(context.Background(), entity.MediaTypeMovie, userKeys())
	require.NoError(t, err)
	assert.Equal(t, cached, metas)
	assert.Zero(t, f.trending.calls)
}

func TestTrendingProviderFailureDegradesToEmptySuccess(t *testing.T) {
	f := newOrchFixture()
	f.trending.err = errors.New("tmdb 503")

	metas, err := f.orch.Trending(context.Background(), entity.MediaTypeMovie, userKeys())
	require.NoError(t, err)
	assert.Empty(t, metas)
	assert.Empty(t, f.cache.data)
}

func TestTrendingWithoutMetadataKeyDegrades(t *testing.T) {
	f := newOrchFixture()

	metas, err := f.orch.Trending(context.Background(), entity.MediaTypeMovie, &entity.Keys{GoogleKey: "g"})
	require.NoError(t, err)
	assert.Empty(t, metas)
	assert.Zero(t, f.trending.calls)
}

func TestTrendingInvalidTypeIsClientError(t *testing.T) {
	f := newOrchFixture()
	_, err := f.orch.Trending(context.Background(), "documentary", userKeys())
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)
}

func recentUserKeys(expiresAt int64) *entity.Keys {
	return &entity.Keys{
		GoogleKey:      "g-key",
		TMDBKey:        "t-key",
		TraktKey:       "trakt-access",
		TraktRefresh:   "trakt-refresh",
		TraktExpiresAt: expiresAt,
	}
}

func TestRecentlyWatchedFullPipeline(t *testing.T) {
	f := newOrchFixture()
	f.history.titles = []string{"Severance", "Dark"}
	f.gemini.rec = &entity.Recommendation{Language: "en", Candidates: []entity.Candidate{{Title: "Counterpart"}}}
	f.source.metas = map[string]entity.Meta{
		"Counterpart": {ID: "tt4643084", Name: "Counterpart", Type: entity.MediaTypeSeries, Poster: posterURL("c.jpg")},
	}

	metas, err := f.orch.RecentlyWatched(context.Background(), "u1", entity.MediaTypeSeries, recentUserKeys(0))
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "tt4643084", metas[0].ID)

	assert.Contains(t, f.cache.data, "user:u1:recent-series")
	assert.Equal(t, time.Hour, f.cache.ttls["user:u1:recent-series"])
	assert.Empty(t, f.vector.entries, "watch-history responses are user-keyed, not semantically indexed")
}

func TestRecentlyWatchedCacheHitSkipsRefreshAndProviders(t *testing.T) {
	f := newOrchFixture()
	cached := []entity.Meta{{ID: "tt4643084", Name: "Counterpart", Type: entity.MediaTypeSeries}}
	blob, err := json.Marshal(cached)
	require.NoError(t, err)
	f.cache.data["user:u1:recent-series"] = blob

	expired := time.Now().Add(-time.Hour).Unix()
	metas, err := f.orch.RecentlyWatched(context.Background(), "u1", entity.MediaTypeSeries, recentUserKeys(expired))
	require.NoError(t, err)
	assert.Equal(t, cached, metas)
	assert.Zero(t, f.history.refreshCalls)
	assert.Zero(t, f.history.watchCalls)
	assert.Zero(t, f.gemini.calls)
}

func TestRecentlyWatchedExpiredTokenIsRefreshedOnce(t *testing.T) {
	f := newOrchFixture()
	f.history.access = "new-access"
	f.history.refresh = "new-refresh"
	f.history.expiresAt = time.Now().Add(2 * time.Hour).Unix()
	f.history.titles = []string{"Dark"}
	f.gemini.rec = &entity.Recommendation{Language: "en", Candidates: []entity.Candidate{{Title: "1899"}}}
	f.source.metas = map[string]entity.Meta{
		"1899": {ID: "tt9319668", Name: "1899", Type: entity.MediaTypeSeries, Poster: posterURL("n.jpg")},
	}

	expired := time.Now().Add(-time.Minute).Unix()
	_, err := f.orch.RecentlyWatched(context.Background(), "u1", entity.MediaTypeSeries, recentUserKeys(expired))
	require.NoError(t, err)

	assert.Equal(t, 1, f.history.refreshCalls)
	assert.Equal(t, 1, f.vault.putCalls)
	stored := f.vault.bundles["u1"]
	assert.Equal(t, "new-access", stored.TraktKey)
	assert.Equal(t, "g-key", stored.GoogleKey, "unrelated fields survive the rotation")
}

func TestRecentlyWatchedRefreshFailureDegrades(t *testing.T) {
	f := newOrchFixture()
	f.history.refreshErr = errors.New("invalid_grant")

	expired := time.Now().Add(-time.Minute).Unix()
	metas, err := f.orch.RecentlyWatched(context.Background(), "u1", entity.MediaTypeSeries, recentUserKeys(expired))
	require.NoError(t, err)
	assert.Empty(t, metas)
	assert.Zero(t, f.history.watchCalls)
	assert.Zero(t, f.gemini.calls)
}

func TestRecentlyWatchedHistoryFailureDegrades(t *testing.T) {
	f := newOrchFixture()
	f.history.watchErr = errors.New("trakt 503")

	metas, err := f.orch.RecentlyWatched(context.Background(), "u1", entity.MediaTypeSeries, recentUserKeys(0))
	require.NoError(t, err)
	assert.Empty(t, metas)
	assert.Zero(t, f.gemini.calls)
}

func TestRecentlyWatchedMissingUserIsClientError(t *testing.T) {
	f := newOrchFixture()
	_, err := f.orch.RecentlyWatched(context.Background(), "", entity.MediaTypeSeries, recentUserKeys(0))
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)
}
