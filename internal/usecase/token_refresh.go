package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"filmwhisper/internal/domain/entity"
	"filmwhisper/internal/domain/repository"
)

// RefreshManager rotates the watch-history provider's short-lived OAuth
// tokens, persisting rotated bundles back through the vault.
type RefreshManager struct {
	history repository.HistorySource
	vault   repository.KeyVault
	now     func() time.Time
}

func NewRefreshManager(history repository.HistorySource, vault repository.KeyVault) *RefreshManager {
	return &RefreshManager{history: history, vault: vault, now: time.Now}
}

// RefreshIfExpired returns the bundle to use for this request and whether
// a refresh happened. A non-expired bundle (including one without an
// expiry timestamp) is returned untouched. On a rejected refresh token
// the original bundle comes back with entity.ErrRefreshFailed; the
// caller degrades the watch-history capability, not the whole request.
//
// The merged bundle overwrites the stored one whole; only the three
// token fields change. Vault races with a concurrent key submission are
// last-writer-wins: token lifetimes make them rare, and a lost refresh
// just refreshes again on the next request.
func (m *RefreshManager) RefreshIfExpired(ctx context.Context, userID string, keys *entity.Keys) (*entity.Keys, bool, error) {
	if keys == nil || !keys.TraktExpired(m.now()) {
		return keys, false, nil
	}

	log.Printf("[OAUTH] Trakt token expired for user %s, refreshing", userID)
	access, refresh, expiresAt, err := m.history.RefreshToken(ctx, keys.TraktRefresh)
	if err != nil {
		return keys, false, fmt.Errorf("%w: %v", entity.ErrRefreshFailed, err)
	}

	merged := *keys
	merged.TraktKey = access
	merged.TraktRefresh = refresh
	merged.TraktExpiresAt = expiresAt

	if err := m.vault.Put(ctx, userID, &merged); err != nil {
		// The fresh token is valid for this request even if persistence
		// failed; the next request will simply refresh again.
		log.Printf("[OAUTH] Persisting rotated tokens for user %s failed: %v", userID, err)
	}
	return &merged, true, nil
}
