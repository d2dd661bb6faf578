package main

import (
	"context"
	"log"
	"time"

	"filmwhisper/internal/adapter/api"
	"filmwhisper/internal/adapter/client"
	"filmwhisper/internal/adapter/store"
	"filmwhisper/internal/config"
	"filmwhisper/internal/domain/repository"
	"filmwhisper/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

const embeddingDim = 768

func main() {
	if err := godotenv.Load(".env.dev"); err != nil {
		log.Println("Warning: .env.dev file not found, using system environment variables")
	}
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.CacheDisabled {
		log.Println("!!! Caching disabled !!!")
	}

	// Redis backs both the exact-match cache and the credential vault.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	vault, err := store.NewVault(rdb, cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("failed to init credential vault: %v", err)
	}

	tmdbClient := client.NewTMDBClient(cfg.TMDBAPIKey)
	rpdbClient := client.NewRPDBClient()
	traktClient := client.NewTraktClient(cfg.TraktClientID, cfg.TraktClientSecret)
	providerFactory := client.NewProviderFactory(cfg.GeminiAPIKey, cfg.GoogleModel, cfg.FallbackModel, cfg.OpenAIModel)

	var (
		resultCache *store.RedisCache
		semantic    *usecase.SemanticCache
		vectorStore *store.QdrantStore
	)
	if !cfg.CacheDisabled {
		resultCache = store.NewRedisCache(rdb)

		// Qdrant for the semantic proximity tier
		qClient, err := qdrant.NewClient(&qdrant.Config{
			Host: cfg.QdrantHost,
			Port: cfg.QdrantPort,
		})
		if err != nil {
			log.Fatalf("failed to connect to qdrant: %v", err)
		}
		vectorStore = store.NewQdrantStore(qClient, cfg.QdrantCollection, embeddingDim)
		if err := vectorStore.InitCollection(ctx); err != nil {
			log.Fatalf("failed to init qdrant collection: %v", err)
		}

		embedder, err := client.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
		if err != nil {
			log.Fatalf("failed to init embedder: %v", err)
		}
		semantic = usecase.NewSemanticCache(embedder, vectorStore, cfg.SemanticProximity)

		go func() {
			warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := embedder.CreateEmbedding(warmCtx, "warmup"); err != nil {
				log.Printf("[WARMER] Embedder warm-up failed: %v", err)
			}
		}()

		// Monthly wholesale reset bounds semantic drift as the catalog changes.
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(cfg.ResetVectorCron, func() {
			resetCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := vectorStore.Reset(resetCtx); err != nil {
				log.Printf("[SCHEDULER] Semantic index reset failed: %v", err)
			}
		}); err != nil {
			log.Fatalf("invalid RESET_VECTOR_CRON expression: %v", err)
		}
		scheduler.Start()
	}

	cacheForPipeline := nilIfDisabled(resultCache)
	resolver := usecase.NewResolver(tmdbClient, cacheForPipeline)
	selector := usecase.NewProviderSelector(providerFactory)
	refresher := usecase.NewRefreshManager(traktClient, vault)

	orchestrator := usecase.NewOrchestrator(
		semantic,
		cacheForPipeline,
		resolver,
		selector,
		refresher,
		traktClient,
		tmdbClient,
		rpdbClient,
		cfg.SearchCount,
	)

	checks := map[string]api.HealthCheck{
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		"tmdb":  tmdbClient.Healthy,
		"rpdb": func(ctx context.Context) error {
			return rpdbClient.Healthy(ctx, cfg.RPDBFreeKey)
		},
	}
	if vectorStore != nil {
		checks["vector"] = func(ctx context.Context) error {
			_, err := vectorStore.Info(ctx)
			return err
		}
	}

	var counter api.Counter
	if resultCache != nil {
		counter = resultCache
	}

	app := fiber.New(fiber.Config{
		AppName: "FilmWhisper",
	})
	handler := api.NewHandler(orchestrator, vault, counter, checks)
	api.SetupRouter(app, handler)

	log.Printf("FilmWhisper running on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}

// nilIfDisabled keeps a typed-nil *RedisCache out of the pipeline's
// interface fields, so `cache == nil` checks stay meaningful.
func nilIfDisabled(c *store.RedisCache) repository.ResultCache {
	if c == nil {
		return nil
	}
	return c
}
