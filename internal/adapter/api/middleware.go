package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"

	"filmwhisper/internal/domain/entity"

	"github.com/gofiber/fiber/v2"
)

const (
	localKeys      = "keys"
	localUserID    = "userId"
	localMediaType = "mediaType"
)

// unauthenticatedKeys is what an anonymous install runs on: the operator's
// shared Gemini and TMDB keys, nothing user-specific.
func unauthenticatedKeys() *entity.Keys {
	return &entity.Keys{GoogleKey: "default", TMDBKey: "default"}
}

// SetMovieType and SetSeriesType pin the media type per route.
func SetMovieType(c *fiber.Ctx) error {
	c.Locals(localMediaType, entity.MediaTypeMovie)
	return c.Next()
}

func SetSeriesType(c *fiber.Ctx) error {
	c.Locals(localMediaType, entity.MediaTypeSeries)
	return c.Next()
}

// ResolveKeys turns the optional :keys path segment into a credential
// bundle. The segment is either a user id (vault lookup, with OAuth
// refresh downstream) or url-safe base64 JSON of inline keys kept for
// legacy installs. No segment means an anonymous install on operator
// defaults. An unreachable vault is an infrastructure failure and fails
// the request; corrupt credentials downgrade the user to anonymous.
func (h *Handler) ResolveKeys(c *fiber.Ctx) error {
	param := c.Params(localKeys)
	if param == "" {
		c.Locals(localKeys, unauthenticatedKeys())
		return c.Next()
	}

	if keys, ok := decodeInlineKeys(param); ok {
		if keys.GoogleKey == "" && keys.OpenAIKey == "" {
			keys.GoogleKey = "default"
		}
		if keys.TMDBKey == "" {
			keys.TMDBKey = "default"
		}
		c.Locals(localKeys, keys)
		return c.Next()
	}

	keys, err := h.vault.Get(c.Context(), param)
	switch {
	case err == nil:
		c.Locals(localKeys, keys)
		c.Locals(localUserID, param)
	case errors.Is(err, entity.ErrKeysNotFound), errors.Is(err, entity.ErrCorruptCredentials):
		log.Printf("[API] No usable credentials for %q, serving as anonymous: %v", param, err)
		c.Locals(localKeys, unauthenticatedKeys())
	default:
		log.Printf("[API] Vault unreachable: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "credential store unavailable"})
	}
	return c.Next()
}

func decodeInlineKeys(param string) (*entity.Keys, bool) {
	raw, err := base64.URLEncoding.DecodeString(param)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(param)
		if err != nil {
			return nil, false
		}
	}
	var keys entity.Keys
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, false
	}
	return &keys, true
}

func stateKeys(c *fiber.Ctx) *entity.Keys {
	if keys, ok := c.Locals(localKeys).(*entity.Keys); ok {
		return keys
	}
	return nil
}

func stateMediaType(c *fiber.Ctx) entity.MediaType {
	if mt, ok := c.Locals(localMediaType).(entity.MediaType); ok {
		return mt
	}
	return ""
}
