package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SessionIDLocalKey is the key used to store the session ID in Fiber's context locals.
const SessionIDLocalKey = "session_id"

// Session ensures every request carries a cart session ID.
//
// Behavior:
// - Reads the session cookie from the incoming request.
// - If missing or not a valid UUID, generates a new one and sets the cookie.
// - Stores the value in Fiber context locals under SessionIDLocalKey.
//
// The cookie expiry matches the session store TTL; both slide forward while
// the cart is in use.
func Session(cookieName string, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Cookies(cookieName)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		// Re-setting the cookie on every request keeps its expiry aligned
		// with the sliding store TTL.
		c.Cookie(&fiber.Cookie{
			Name:     cookieName,
			Value:    id,
			Path:     "/",
			Expires:  time.Now().Add(ttl),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		c.Locals(SessionIDLocalKey, id)

		return c.Next()
	}
}
