package client

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"filmwhisper/internal/domain/entity"
)

// RPDBClient substitutes RatingPosterDB artwork for records that have an
// IMDB id. A missing or invalid key leaves the original posters alone.
type RPDBClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRPDBClient() *RPDBClient {
	return &RPDBClient{
		baseURL:    "https://api.ratingposterdb.com",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Apply rewrites poster URLs in place where an override is available and
// returns the same slice. Any failure is a no-op.
func (c *RPDBClient) Apply(ctx context.Context, metas []entity.Meta, rpdbKey string) []entity.Meta {
	if rpdbKey == "" {
		return metas
	}
	if err := c.validateKey(ctx, rpdbKey); err != nil {
		log.Printf("[RPDB] Key validation failed, keeping original posters: %v", err)
		return metas
	}
	for i := range metas {
		if metas[i].ID == "" {
			continue
		}
		poster := fmt.Sprintf("%s/%s/imdb/poster-default/%s.jpg?fallback=true",
			c.baseURL, url.PathEscape(rpdbKey), metas[i].ID)
		metas[i].Poster = &poster
	}
	return metas
}

// Healthy checks reachability with the operator's free tier key.
func (c *RPDBClient) Healthy(ctx context.Context, freeKey string) error {
	return c.validateKey(ctx, freeKey)
}

func (c *RPDBClient) validateKey(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s/isValid", c.baseURL, url.PathEscape(key)), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpdb api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpdb key rejected with status %d", resp.StatusCode)
	}
	return nil
}
