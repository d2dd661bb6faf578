package api

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"filmwhisper/internal/domain/entity"
	"filmwhisper/internal/domain/repository"
	"filmwhisper/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/sourcegraph/conc"
)

// HealthCheck probes one dependency; nil means healthy.
type HealthCheck func(ctx context.Context) error

// Counter tracks install statistics. Optional; nil disables counting.
type Counter interface {
	IncrCounter(ctx context.Context, name string) error
}

type Handler struct {
	orchestrator *usecase.Orchestrator
	vault        repository.KeyVault
	counter      Counter
	checks       map[string]HealthCheck
}

func NewHandler(orchestrator *usecase.Orchestrator, vault repository.KeyVault, counter Counter, checks map[string]HealthCheck) *Handler {
	return &Handler{orchestrator: orchestrator, vault: vault, counter: counter, checks: checks}
}

type catalogResponse struct {
	Metas []entity.Meta `json:"metas"`
}

// HandleSearch serves /catalog/.../:search. The search segment arrives as
// "search=<text>.json" from Stremio clients.
func (h *Handler) HandleSearch(c *fiber.Ctx) error {
	query := parseSearchParam(c.Params("search"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing search query"})
	}

	log.Printf("[API] Catalog search %q (%s)", query, stateMediaType(c))
	metas, err := h.orchestrator.Search(c.Context(), query, stateMediaType(c), stateKeys(c))
	if err != nil {
		return h.pipelineError(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.JSON(catalogResponse{Metas: metas})
}

// HandleRecent serves recommendations seeded from the user's watch history.
// Without a vault-backed user id there is no history to read, so the
// response degrades to empty.
func (h *Handler) HandleRecent(c *fiber.Ctx) error {
	userID, _ := c.Locals(localUserID).(string)
	if userID == "" {
		return c.JSON(catalogResponse{Metas: []entity.Meta{}})
	}

	metas, err := h.orchestrator.RecentlyWatched(c.Context(), userID, stateMediaType(c), stateKeys(c))
	if err != nil {
		return h.pipelineError(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.JSON(catalogResponse{Metas: metas})
}

// HandleTrending serves the week's most popular titles.
func (h *Handler) HandleTrending(c *fiber.Ctx) error {
	metas, err := h.orchestrator.Trending(c.Context(), stateMediaType(c), stateKeys(c))
	if err != nil {
		return h.pipelineError(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.JSON(catalogResponse{Metas: metas})
}

type storeKeysRequest struct {
	UserID         string `json:"userId"`
	GoogleKey      string `json:"googleKey"`
	OpenAIKey      string `json:"openaiKey"`
	TMDBKey        string `json:"tmdbKey"`
	RPDBKey        string `json:"rpdbKey"`
	OMDBKey        string `json:"omdbKey"`
	TraktKey       string `json:"traktKey"`
	TraktRefresh   string `json:"traktRefresh"`
	TraktExpiresAt int64  `json:"traktExpiresAt"`
}

// HandleStoreKeys accepts a full credential bundle and overwrites the
// stored one. Partial updates are the caller's read-modify-write problem;
// the vault has no field-level patch.
func (h *Handler) HandleStoreKeys(c *fiber.Ctx) error {
	var req storeKeysRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "userId required"})
	}

	keys := &entity.Keys{
		GoogleKey:      req.GoogleKey,
		OpenAIKey:      req.OpenAIKey,
		TMDBKey:        req.TMDBKey,
		RPDBKey:        req.RPDBKey,
		OMDBKey:        req.OMDBKey,
		TraktKey:       req.TraktKey,
		TraktRefresh:   req.TraktRefresh,
		TraktExpiresAt: req.TraktExpiresAt,
	}
	if keys.TMDBKey == "" {
		keys.TMDBKey = "default"
	}

	if err := h.vault.Put(c.Context(), req.UserID, keys); err != nil {
		log.Printf("[API] Storing keys failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store keys"})
	}
	return c.JSON(fiber.Map{"userId": req.UserID})
}

// HandleManifest serves the static addon manifest.
func (h *Handler) HandleManifest(c *fiber.Ctx) error {
	if h.counter != nil {
		if err := h.counter.IncrCounter(c.Context(), "manifest_requests"); err != nil {
			log.Printf("[API] Install counter failed: %v", err)
		}
	}
	return c.JSON(Manifest)
}

// HandleHealth probes every dependency concurrently and waits for all of
// them to settle; one slow dependency never masks the status of the rest.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	ctx := c.Context()

	var mu sync.Mutex
	results := make(map[string]string, len(h.checks))
	healthy := true

	var wg conc.WaitGroup
	for name, check := range h.checks {
		wg.Go(func() {
			err := check(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("[HEALTH] %s check failed: %v", name, err)
				results[name] = "failed"
				healthy = false
				return
			}
			results[name] = "ok"
		})
	}
	wg.Wait()

	if healthy {
		return c.SendString("OK")
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":   "unhealthy",
		"services": results,
	})
}

func (h *Handler) pipelineError(c *fiber.Ctx, err error) error {
	if errors.Is(err, entity.ErrInvalidRequest) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("[API] Pipeline failure: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

func parseSearchParam(param string) string {
	param = strings.TrimSuffix(param, ".json")
	param = strings.TrimPrefix(param, "search=")
	return strings.TrimSpace(param)
}
