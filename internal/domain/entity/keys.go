package entity

import "time"

// Keys is the per-user bundle of third-party credentials. It is persisted
// only in encrypted form; the decrypted value lives in memory for the
// duration of a single request.
type Keys struct {
	GoogleKey      string `json:"googleKey,omitempty"`
	OpenAIKey      string `json:"openAiKey,omitempty"`
	TMDBKey        string `json:"tmdbKey,omitempty"`
	RPDBKey        string `json:"rpdbKey,omitempty"`
	OMDBKey        string `json:"omdbKey,omitempty"`
	TraktKey       string `json:"traktKey,omitempty"`
	TraktRefresh   string `json:"traktRefresh,omitempty"`
	TraktExpiresAt int64  `json:"traktExpiresAt,omitempty"` // unix seconds, 0 = never expires
}

// TraktExpired reports whether the stored Trakt access token is past its
// expiry. Bundles without an expiry timestamp never expire (legacy bundles
// stored before expiry tracking existed).
func (k Keys) TraktExpired(now time.Time) bool {
	return k.TraktExpiresAt != 0 && now.Unix() >= k.TraktExpiresAt
}

// HasLLMKey reports whether any recommendation backend can be selected.
func (k Keys) HasLLMKey() bool {
	return k.GoogleKey != "" || k.OpenAIKey != ""
}
