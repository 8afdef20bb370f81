package handlers

import (
	"errors"

	applog "github.com/Gupta12p/HouseListing/internal/log"
	"github.com/Gupta12p/HouseListing/internal/services"

	"github.com/gofiber/fiber/v2"
)

const sessionCookie = "sid"

// AttachUser puts the session's user into Locals("user") when logged in.
func AttachUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies(sessionCookie); sid != "" {
			if u, err := auth.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	}
}

// RequireAdmin lets only admins through. Anonymous callers are sent to the
// login page, everyone else gets 403.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(sessionCookie)
		u, err := auth.RequireAdmin(sid)
		if errors.Is(err, services.ErrUnauthenticated) {
			applog.Security(c, "access.denied.admin", map[string]any{"reason": "unauthenticated"})
			return c.Redirect("/login")
		}
		if err != nil || u == nil {
			applog.Security(c, "access.denied.admin", map[string]any{"reason": "forbidden"})
			return notFound(c, fiber.StatusForbidden, "Access denied")
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := auth.RequireAuthenticated(c.Cookies(sessionCookie))
		if err != nil || u == nil {
			setFlash(c, "error", "Please log in to continue.")
			return c.Redirect("/login")
		}
		c.Locals("user", u)
		return c.Next()
	}
}
