package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketUpgrade rejects requests that are not websocket upgrades, lack a
// player ID, or lack any of the named route params.
func WebSocketUpgrade(params ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		for _, name := range params {
			if c.Params(name) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": name + " is required",
				})
			}
		}

		if c.Locals("playerID") == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "player ID is required",
			})
		}
		return c.Next()
	}
}
