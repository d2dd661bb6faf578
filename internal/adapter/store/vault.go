package store

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"filmwhisper/internal/domain/entity"

	"github.com/redis/go-redis/v9"
)

// Vault stores per-user credential bundles in Redis under user:{id},
// AES-256-GCM encrypted with a random nonce prepended to the ciphertext.
// Put always overwrites the whole bundle; there is no field-level patch.
type Vault struct {
	client *redis.Client
	aead   cipher.AEAD
}

// NewVault requires a 32-byte key. Length is validated here, once, so a
// misconfigured deployment fails at boot instead of on the first write.
func NewVault(client *redis.Client, key []byte) (*Vault, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid vault key length: %d bytes, expected 32", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM cipher: %w", err)
	}
	return &Vault{client: client, aead: aead}, nil
}

func vaultKey(userID string) string {
	return "user:" + userID
}

func (v *Vault) Get(ctx context.Context, userID string) (*entity.Keys, error) {
	blob, err := v.client.Get(ctx, vaultKey(userID)).Result()
	if err == redis.Nil {
		return nil, entity.ErrKeysNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vault read: %w", err)
	}

	plaintext, err := v.decrypt(blob)
	if err != nil {
		// Corrupt or pre-encryption payload. The caller must treat the
		// user as unauthenticated, never fabricate defaults.
		return nil, fmt.Errorf("%w: %v", entity.ErrCorruptCredentials, err)
	}

	var keys entity.Keys
	if err := json.Unmarshal(plaintext, &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrCorruptCredentials, err)
	}
	return &keys, nil
}

func (v *Vault) Put(ctx context.Context, userID string, keys *entity.Keys) error {
	plaintext, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode keys: %w", err)
	}
	blob, err := v.encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt keys: %w", err)
	}
	// Bundles have no TTL; deletion is an explicit administrative action.
	if err := v.client.Set(ctx, vaultKey(userID), blob, 0).Err(); err != nil {
		return fmt.Errorf("vault write: %w", err)
	}
	return nil
}

func (v *Vault) encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	ciphertext := v.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (v *Vault) decrypt(blob string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	nonceSize := v.aead.NonceSize()
	if len(data) < nonceSize+v.aead.Overhead() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	return v.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
}
