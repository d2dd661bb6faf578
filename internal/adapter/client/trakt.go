package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"filmwhisper/internal/domain/entity"
)

const traktAPIVersion = "2"

// TraktClient fetches the user's recent watch activity and handles the
// OAuth refresh-token exchange.
type TraktClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func NewTraktClient(clientID, clientSecret string) *TraktClient {
	return &TraktClient{
		baseURL:      "https://api.trakt.tv",
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

type traktHistoryItem struct {
	WatchedAt time.Time `json:"watched_at"`
	Type      string    `json:"type"`
	Movie     *struct {
		Title string `json:"title"`
	} `json:"movie,omitempty"`
	Show *struct {
		Title string `json:"title"`
	} `json:"show,omitempty"`
}

type traktTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	CreatedAt    int64  `json:"created_at"`
}

func (c *TraktClient) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", traktAPIVersion)
	req.Header.Set("trakt-api-key", c.clientID)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
}

// RecentWatches returns titles from the user's watch history, newest
// first, deduplicated. Episodes collapse to their show title.
func (c *TraktClient) RecentWatches(ctx context.Context, accessToken string, mediaType entity.MediaType, limit int) ([]string, error) {
	historyType := "movies"
	if mediaType == entity.MediaTypeSeries {
		historyType = "shows"
	}
	url := fmt.Sprintf("%s/sync/history/%s?limit=%d", c.baseURL, historyType, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trakt api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("trakt history failed: %s - %s", resp.Status, string(respBody))
	}

	var items []traktHistoryItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	seen := make(map[string]bool)
	var titles []string
	for _, item := range items {
		var title string
		switch {
		case mediaType == entity.MediaTypeMovie && item.Movie != nil:
			title = item.Movie.Title
		case mediaType == entity.MediaTypeSeries && item.Show != nil:
			title = item.Show.Title
		}
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
	}
	return titles, nil
}

// RefreshToken exchanges an expired refresh token for a new token pair.
func (c *TraktClient) RefreshToken(ctx context.Context, refreshToken string) (string, string, int64, error) {
	payload := map[string]string{
		"refresh_token": refreshToken,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"redirect_uri":  "urn:ietf:wg:oauth:2.0:oob",
		"grant_type":    "refresh_token",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", bytes.NewReader(body))
	if err != nil {
		return "", "", 0, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", 0, fmt.Errorf("trakt api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", "", 0, fmt.Errorf("trakt token refresh failed: %s - %s", resp.Status, string(respBody))
	}

	var token traktTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", "", 0, fmt.Errorf("decode response: %w", err)
	}
	expiresAt := token.CreatedAt + token.ExpiresIn
	return token.AccessToken, token.RefreshToken, expiresAt, nil
}
