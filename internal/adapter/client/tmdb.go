package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"filmwhisper/internal/domain/entity"

	"github.com/sourcegraph/conc/iter"
)

const (
	tmdbImageBaseURL = "https://image.tmdb.org/t/p/w500"
	trendingLimit    = 20
)

// TMDBClient resolves candidate titles against The Movie Database. The
// API key is passed per call because every user supplies their own; the
// operator key substitutes when a user stored the literal "default".
type TMDBClient struct {
	baseURL    string
	defaultKey string
	httpClient *http.Client
}

func NewTMDBClient(defaultKey string) *TMDBClient {
	return &TMDBClient{
		baseURL:    "https://api.themoviedb.org/3",
		defaultKey: defaultKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type tmdbSearchResponse struct {
	Results []tmdbSearchResult `json:"results"`
}

type tmdbSearchResult struct {
	ID int `json:"id"`
}

type tmdbDetailsResponse struct {
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
	PosterPath   string `json:"poster_path"`
	ExternalIDs  struct {
		IMDBID string `json:"imdb_id"`
	} `json:"external_ids"`
}

// FindByTitle searches for the title, takes the first match, and fetches
// full details including the IMDB id. A title that cannot be resolved to
// an IMDB id yields a Meta with an empty id.
func (c *TMDBClient) FindByTitle(ctx context.Context, title, language string, mediaType entity.MediaType, apiKey string) (entity.Meta, error) {
	key := c.resolveKey(apiKey)
	if key == "" {
		return entity.Meta{}, fmt.Errorf("no tmdb api key available")
	}

	searchPath := "/search/movie"
	detailsPath := "/movie"
	if mediaType == entity.MediaTypeSeries {
		searchPath = "/search/tv"
		detailsPath = "/tv"
	}

	q := url.Values{}
	q.Set("api_key", key)
	q.Set("query", title)
	if language != "" {
		q.Set("language", language)
	}

	var search tmdbSearchResponse
	if err := c.getJSON(ctx, c.baseURL+searchPath+"?"+q.Encode(), &search); err != nil {
		return entity.Meta{}, fmt.Errorf("tmdb search: %w", err)
	}
	if len(search.Results) == 0 {
		return entity.Meta{}, fmt.Errorf("no results for %q", title)
	}

	return c.details(ctx, detailsPath, search.Results[0].ID, key, mediaType)
}

// Trending returns the week's most popular titles, resolved to IMDB ids.
// Titles without an IMDB id or a poster are dropped; Stremio clients
// cannot render them.
func (c *TMDBClient) Trending(ctx context.Context, mediaType entity.MediaType, apiKey string) ([]entity.Meta, error) {
	key := c.resolveKey(apiKey)
	if key == "" {
		return nil, fmt.Errorf("no tmdb api key available")
	}

	kind := "movie"
	if mediaType == entity.MediaTypeSeries {
		kind = "tv"
	}

	var list tmdbSearchResponse
	trendingURL := fmt.Sprintf("%s/trending/%s/week?api_key=%s", c.baseURL, kind, url.QueryEscape(key))
	if err := c.getJSON(ctx, trendingURL, &list); err != nil {
		return nil, fmt.Errorf("tmdb trending: %w", err)
	}
	results := list.Results
	if len(results) > trendingLimit {
		results = results[:trendingLimit]
	}

	settled := iter.Map(results, func(r *tmdbSearchResult) entity.Meta {
		meta, err := c.details(ctx, "/"+kind, r.ID, key, mediaType)
		if err != nil {
			log.Printf("[TMDB] Trending detail lookup for %d failed: %v", r.ID, err)
			return entity.Meta{}
		}
		return meta
	})

	metas := make([]entity.Meta, 0, len(settled))
	for _, m := range settled {
		if m.Resolved() && m.Poster != nil {
			metas = append(metas, m)
		}
	}
	return metas, nil
}

func (c *TMDBClient) details(ctx context.Context, detailsPath string, id int, key string, mediaType entity.MediaType) (entity.Meta, error) {
	detailsURL := fmt.Sprintf("%s%s/%d?api_key=%s&append_to_response=external_ids",
		c.baseURL, detailsPath, id, url.QueryEscape(key))
	var details tmdbDetailsResponse
	if err := c.getJSON(ctx, detailsURL, &details); err != nil {
		return entity.Meta{}, fmt.Errorf("tmdb details: %w", err)
	}

	meta := entity.Meta{
		ID:          details.ExternalIDs.IMDBID,
		Name:        details.Title,
		Type:        mediaType,
		PosterShape: "poster",
		Year:        yearOf(details.ReleaseDate),
	}
	if mediaType == entity.MediaTypeSeries {
		meta.Name = details.Name
		meta.Year = yearOf(details.FirstAirDate)
	}
	if details.PosterPath != "" {
		poster := tmdbImageBaseURL + details.PosterPath
		meta.Poster = &poster
	}
	return meta, nil
}

// Healthy checks reachability with the operator key.
func (c *TMDBClient) Healthy(ctx context.Context) error {
	var out struct{}
	return c.getJSON(ctx, c.baseURL+"/configuration?api_key="+url.QueryEscape(c.defaultKey), &out)
}

func (c *TMDBClient) resolveKey(apiKey string) string {
	if apiKey == "" || apiKey == "default" {
		return c.defaultKey
	}
	return apiKey
}

func (c *TMDBClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb api responded with status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func yearOf(date string) string {
	if i := strings.IndexByte(date, '-'); i > 0 {
		return date[:i]
	}
	return date
}
