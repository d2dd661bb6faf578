package entity

import "errors"

// Standard domain errors
var (
	ErrKeysNotFound         = errors.New("no stored keys for user")
	ErrCorruptCredentials   = errors.New("stored credentials could not be decrypted")
	ErrNoProviderConfigured = errors.New("no recommendation provider key configured")
	ErrRefreshFailed        = errors.New("watch-history token refresh rejected")
	ErrCacheMiss            = errors.New("cache miss")
	ErrInvalidRequest       = errors.New("invalid request parameters")
	ErrInternalServer       = errors.New("an internal error occurred")
)
