package store

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"testing"

	"filmwhisper/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestNewVaultRejectsWrongKeyLength(t *testing.T) {
	_, err := NewVault(nil, make([]byte, 16))
	assert.ErrorContains(t, err, "key length")

	_, err = NewVault(nil, nil)
	assert.ErrorContains(t, err, "key length")
}

func TestEncryptDecryptRoundTripsBundle(t *testing.T) {
	v, err := NewVault(nil, testKey(t))
	require.NoError(t, err)

	original := entity.Keys{
		GoogleKey:      "g-key",
		OpenAIKey:      "o-key",
		TMDBKey:        "t-key",
		RPDBKey:        "r-key",
		TraktKey:       "access",
		TraktRefresh:   "refresh",
		TraktExpiresAt: 1700000000,
	}
	plaintext, err := json.Marshal(original)
	require.NoError(t, err)

	blob, err := v.encrypt(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, blob, "g-key", "ciphertext must not leak fields")

	decrypted, err := v.decrypt(blob)
	require.NoError(t, err)

	var got entity.Keys
	require.NoError(t, json.Unmarshal(decrypted, &got))
	assert.Equal(t, original, got)
}

func TestEncryptUsesFreshNonces(t *testing.T) {
	v, err := NewVault(nil, testKey(t))
	require.NoError(t, err)

	a, err := v.encrypt([]byte("same plaintext"))
	require.NoError(t, err)
	b, err := v.encrypt([]byte("same plaintext"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	v, err := NewVault(nil, testKey(t))
	require.NoError(t, err)

	blob, err := v.encrypt([]byte(`{"googleKey":"g"}`))
	require.NoError(t, err)

	tampered := []byte(blob)
	tampered[len(tampered)-2] ^= 'x'
	_, err = v.decrypt(string(tampered))
	assert.Error(t, err)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	v, err := NewVault(nil, testKey(t))
	require.NoError(t, err)

	_, err = v.decrypt("not base64 at all!!!")
	assert.Error(t, err)

	_, err = v.decrypt("c2hvcnQ=") // valid base64, far too short
	assert.Error(t, err)
}

func TestDecryptWithDifferentKeyFails(t *testing.T) {
	v1, err := NewVault(nil, testKey(t))
	require.NoError(t, err)
	v2, err := NewVault(nil, testKey(t))
	require.NoError(t, err)

	blob, err := v1.encrypt([]byte(`{"tmdbKey":"t"}`))
	require.NoError(t, err)
	_, err = v2.decrypt(blob)
	assert.Error(t, err)
}

func TestVaultKeyNamespace(t *testing.T) {
	assert.Equal(t, "user:abc", vaultKey("abc"))
}

func TestEncryptOutputIsNotPlaintextJSON(t *testing.T) {
	v, err := NewVault(nil, testKey(t))
	require.NoError(t, err)

	blob, err := v.encrypt([]byte(`{"traktKey":"secret"}`))
	require.NoError(t, err)
	assert.False(t, bytes.Contains([]byte(blob), []byte("secret")))
}
