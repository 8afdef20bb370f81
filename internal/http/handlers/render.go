package handlers

import (
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const flashCookie = "flash"

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Inject user if present
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("csrf").(string)
	if tok == "" {
		// Fall back to the CSRF cookie when Locals wasn't populated.
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	if kind, msg, ok := popFlash(c); ok {
		data["Flash"] = fiber.Map{"Kind": kind, "Message": msg}
	}
	return c.Render(tmpl, data)
}

// notFound renders the shared error page with status code.
func notFound(c *fiber.Ctx, status int, msg string) error {
	c.Status(status)
	return render(c, "notfound", fiber.Map{"Message": msg})
}

// setFlash leaves a one-shot message for the next rendered page.
func setFlash(c *fiber.Ctx, kind, msg string) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + msg),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func popFlash(c *fiber.Ctx) (kind, msg string, ok bool) {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return "", "", false
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	v, err := url.QueryUnescape(raw)
	if err != nil {
		return "", "", false
	}
	kind, msg, ok = strings.Cut(v, "|")
	return kind, msg, ok
}

// param reads key from the query string, falling back to the form body so
// GET and POST searches behave the same.
func param(c *fiber.Ctx, key string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return c.FormValue(key)
}
