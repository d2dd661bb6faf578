package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// SetupRouter wires the addon routes. The optional :keys segment carries
// either a user id or inline legacy keys; catalog ids and paths are part
// of the installed-addon contract and must not change.
func SetupRouter(app *fiber.App, h *Handler) {
	app.Use(logger.New())

	app.Get("/health", h.HandleHealth)
	app.Post("/api/store-keys", h.HandleStoreKeys)

	app.Get("/:keys?/manifest.json", h.ResolveKeys, h.HandleManifest)

	app.Get("/:keys?/catalog/movie/ai-movies/:search", SetMovieType, h.ResolveKeys, h.HandleSearch)
	app.Get("/:keys?/catalog/series/ai-tv/:search", SetSeriesType, h.ResolveKeys, h.HandleSearch)

	app.Get("/:keys?/catalog/movie/ai-trending-movies.json", SetMovieType, h.ResolveKeys, h.HandleTrending)
	app.Get("/:keys?/catalog/series/ai-trending-tv.json", SetSeriesType, h.ResolveKeys, h.HandleTrending)

	app.Get("/:keys?/catalog/movie/ai-trakt-recent-movie.json", SetMovieType, h.ResolveKeys, h.HandleRecent)
	app.Get("/:keys?/catalog/series/ai-trakt-recent-tv.json", SetSeriesType, h.ResolveKeys, h.HandleRecent)
}
