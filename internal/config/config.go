package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
)

// Config is loaded once at boot and passed by reference into every
// constructor. Nothing reads the environment after Load returns.
type Config struct {
	Port string

	RedisAddr     string
	RedisPassword string
	CacheDisabled bool

	QdrantHost       string
	QdrantPort       int
	QdrantCollection string

	// Operator fallback keys, substituted when a user submits the
	// literal "default" instead of their own key.
	GeminiAPIKey string
	TMDBAPIKey   string
	RPDBFreeKey  string

	TraktClientID     string
	TraktClientSecret string

	// EncryptionKey is the raw 32-byte AES-256 key for the credential
	// vault, decoded from a 64-char hex string.
	EncryptionKey []byte

	GoogleProject  string
	GoogleLocation string
	GoogleModel    string
	FallbackModel  string
	OpenAIModel    string
	EmbeddingModel string

	SemanticProximity float32
	SearchCount       int
	ResetVectorCron   string
}

// Load reads and validates the environment. Invalid values that would
// corrupt the pipeline at runtime (bad key length, out-of-range
// threshold) fail here, at startup, rather than per request.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              envOr("PORT", "3000"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		CacheDisabled:     os.Getenv("DISABLE_CACHE") == "true",
		QdrantHost:        envOr("QDRANT_HOST", "localhost"),
		QdrantCollection:  envOr("QDRANT_COLLECTION", "filmwhisper-queries"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		TMDBAPIKey:        os.Getenv("TMDB_API_KEY"),
		RPDBFreeKey:       os.Getenv("RPDB_FREE_API_KEY"),
		TraktClientID:     os.Getenv("TRAKT_CLIENT_ID"),
		TraktClientSecret: os.Getenv("TRAKT_CLIENT_SECRET"),
		GoogleProject:     os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GoogleLocation:    os.Getenv("GOOGLE_CLOUD_LOCATION"),
		GoogleModel:       envOr("GOOGLE_MODEL", "gemini-2.0-flash-lite-preview-02-05"),
		FallbackModel:     envOr("GOOGLE_FALLBACK_MODEL", "gemini-1.5-flash"),
		OpenAIModel:       envOr("OPENAI_MODEL", "gpt-4o-mini"),
		EmbeddingModel:    envOr("EMBEDDING_MODEL", "text-embedding-004"),
		ResetVectorCron:   envOr("RESET_VECTOR_CRON", "0 0 1 * *"),
	}

	var err error
	if cfg.QdrantPort, err = intEnv("QDRANT_PORT", 6334); err != nil {
		return nil, err
	}
	if cfg.SearchCount, err = intEnv("SEARCH_COUNT", 20); err != nil {
		return nil, err
	}
	if cfg.SearchCount <= 0 {
		return nil, fmt.Errorf("SEARCH_COUNT must be positive, got %d", cfg.SearchCount)
	}

	proximity := envOr("SEMANTIC_PROXIMITY", "0.95")
	p, err := strconv.ParseFloat(proximity, 32)
	if err != nil {
		return nil, fmt.Errorf("SEMANTIC_PROXIMITY is not a float: %w", err)
	}
	if p < 0.0 || p > 1.0 {
		return nil, fmt.Errorf("SEMANTIC_PROXIMITY must be between 0.0 and 1.0, got %v", p)
	}
	cfg.SemanticProximity = float32(p)

	keyHex := os.Getenv("ENCRYPTION_KEY")
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid ENCRYPTION_KEY length: %d bytes, expected 32 for AES-256 (64-char hex string)", len(key))
	}
	cfg.EncryptionKey = key

	return cfg, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func intEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s is not an integer: %w", name, err)
	}
	return n, nil
}
