package handlers

import (
	"errors"

	applog "github.com/Gupta12p/HouseListing/internal/log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

// ErrorHandler logs err and renders a friendly page without internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < 500 {
		code = fe.Code
		msg = fe.Message
		if code == fiber.StatusRequestEntityTooLarge {
			msg = "The upload is too large."
		}
	}
	if code >= 500 {
		applog.Error(c, "server.error", err, nil)
	} else {
		applog.Security(c, "request.rejected", map[string]any{"status": code, "err": err.Error()})
	}
	c.Status(code)
	if rerr := c.Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.SendString(msg)
	}
	return nil
}

// CSRF checks the "csrf" form field against the csrf_ cookie on unsafe
// methods. The token is left in Locals("csrf") for templates.
func CSRF(secure bool) fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   secure,
		CookieHTTPOnly: true,
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			c.Status(fiber.StatusForbidden)
			return render(c, "notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	})
}

// NotFound is the catch-all for unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return notFound(c, fiber.StatusNotFound, "Page not found")
}
