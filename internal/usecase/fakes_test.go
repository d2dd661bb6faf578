package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"filmwhisper/internal/domain/entity"
	"filmwhisper/internal/domain/repository"
)

type fakeCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	blob, ok := f.data[key]
	if !ok {
		return nil, entity.ErrCacheMiss
	}
	return blob, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

type fakeMetadataSource struct {
	mu     sync.Mutex
	metas  map[string]entity.Meta
	errs   map[string]error
	calls  []string
	gotKey string
}

func (f *fakeMetadataSource) FindByTitle(_ context.Context, title, _ string, _ entity.MediaType, apiKey string) (entity.Meta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, title)
	f.gotKey = apiKey
	if err, ok := f.errs[title]; ok {
		return entity.Meta{}, err
	}
	if meta, ok := f.metas[title]; ok {
		return meta, nil
	}
	return entity.Meta{}, errors.New("not found")
}

type fakeRecommender struct {
	rec   *entity.Recommendation
	err   error
	calls int
}

func (f *fakeRecommender) Recommend(context.Context, []string, entity.MediaType, int) (*entity.Recommendation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rec, nil
}

type fakeFactory struct {
	gemini *fakeRecommender
	openAI *fakeRecommender
}

func (f *fakeFactory) Gemini(context.Context, string) (repository.Recommender, repository.Recommender, error) {
	return f.gemini, nil, nil
}

func (f *fakeFactory) OpenAI(string) repository.Recommender {
	return f.openAI
}

type fakeHistory struct {
	titles     []string
	watchErr   error
	access     string
	refresh    string
	expiresAt  int64
	refreshErr error

	watchCalls   int
	refreshCalls int
}

func (f *fakeHistory) RecentWatches(context.Context, string, entity.MediaType, int) ([]string, error) {
	f.watchCalls++
	return f.titles, f.watchErr
}

func (f *fakeHistory) RefreshToken(context.Context, string) (string, string, int64, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return "", "", 0, f.refreshErr
	}
	return f.access, f.refresh, f.expiresAt, nil
}

type fakeVault struct {
	mu       sync.Mutex
	bundles  map[string]entity.Keys
	putErr   error
	putCalls int
}

func newFakeVault() *fakeVault {
	return &fakeVault{bundles: map[string]entity.Keys{}}
}

func (f *fakeVault) Get(_ context.Context, userID string) (*entity.Keys, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys, ok := f.bundles[userID]
	if !ok {
		return nil, entity.ErrKeysNotFound
	}
	return &keys, nil
}

func (f *fakeVault) Put(_ context.Context, userID string, keys *entity.Keys) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	f.bundles[userID] = *keys
	return nil
}

type fakeTrending struct {
	metas map[entity.MediaType][]entity.Meta
	err   error
	calls int
}

func (f *fakeTrending) Trending(_ context.Context, mediaType entity.MediaType, _ string) ([]entity.Meta, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.metas[mediaType], nil
}

type fakePosters struct {
	calls int
}

func (f *fakePosters) Apply(_ context.Context, metas []entity.Meta, _ string) []entity.Meta {
	f.calls++
	return metas
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) CreateEmbedding(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

type vectorEntry struct {
	query     string
	mediaType entity.MediaType
	metas     []entity.Meta
}

// fakeVectorStore serves its single stored entry only when the stored
// similarity clears the requested threshold, mirroring a real
// score-thresholded vector search.
type fakeVectorStore struct {
	mu         sync.Mutex
	entries    []vectorEntry
	similarity float32
	searchErr  error
}

func (f *fakeVectorStore) Search(_ context.Context, _ []float32, threshold float32, mediaType entity.MediaType) ([]entity.Meta, float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, 0, f.searchErr
	}
	if f.similarity < threshold {
		return nil, 0, entity.ErrCacheMiss
	}
	for _, e := range f.entries {
		if e.mediaType == mediaType {
			return e.metas, f.similarity, nil
		}
	}
	return nil, 0, entity.ErrCacheMiss
}

func (f *fakeVectorStore) Save(_ context.Context, query string, mediaType entity.MediaType, metas []entity.Meta, _ []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, vectorEntry{query: query, mediaType: mediaType, metas: metas})
	return nil
}

func (f *fakeVectorStore) Reset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = nil
	return nil
}

func posterURL(s string) *string { return &s }
