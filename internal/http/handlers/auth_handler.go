package handlers

import (
	"errors"
	"time"

	"github.com/Gupta12p/HouseListing/internal/log"
	"github.com/Gupta12p/HouseListing/internal/services"
	"github.com/Gupta12p/HouseListing/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth          *services.AuthService
	SecureCookies bool
}

func (h *AuthHandler) setSession(c *fiber.Ctx, s *services.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    s.ID,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.SecureCookies,
	})
}

func (h *AuthHandler) clearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.SecureCookies,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

// dropPrevious ends whatever session the request arrived with, so a login
// never reuses an id the client chose.
func (h *AuthHandler) dropPrevious(c *fiber.Ctx) {
	if old := c.Cookies(sessionCookie); old != "" {
		_ = h.Auth.Logout(old)
	}
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, "register", fiber.Map{"Err": "", "Name": "", "Email": ""})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	name := c.FormValue("name")
	email := c.FormValue("email")
	pass := c.FormValue("password")

	sess, err := h.Auth.Register(name, email, pass)
	var fe *services.FieldError
	switch {
	case errors.As(err, &fe):
		log.Security(c, "validation.fail", map[string]any{"field": fe.Field})
		c.Status(fiber.StatusBadRequest)
		return render(c, "register", fiber.Map{
			"Err": "Please check the " + fe.Field + " field: " + fe.Reason, "Name": name, "Email": email,
		})
	case errors.Is(err, services.ErrDuplicateEmail):
		log.Security(c, "auth.register.duplicate", map[string]any{"email": email})
		c.Status(fiber.StatusConflict)
		return render(c, "register", fiber.Map{
			"Err": "You've already signed up with that email, log in instead.", "Name": name, "Email": "",
		})
	case err != nil:
		return err
	}

	h.dropPrevious(c)
	h.setSession(c, sess)
	log.Audit(c, "auth.register.success", map[string]any{"email": sess.User.Email, "user_id": sess.User.ID})
	setFlash(c, "success", "Registration successful.")
	return c.Redirect("/")
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok || pass == "" {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_format"})
		c.Status(fiber.StatusUnauthorized)
		return render(c, "login", fiber.Map{"Err": "Invalid email or password"})
	}

	sess, err := h.Auth.Login(email, pass)
	if err != nil {
		reason := "error"
		switch {
		case errors.Is(err, services.ErrUnknownEmail):
			reason = "unknown_email"
		case errors.Is(err, services.ErrInvalidCredentials):
			reason = "bad_password"
		default:
			return err
		}
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": reason})
		c.Status(fiber.StatusUnauthorized)
		return render(c, "login", fiber.Map{"Err": "Invalid email or password"})
	}

	h.dropPrevious(c)
	h.setSession(c, sess)
	log.Audit(c, "auth.login.success", map[string]any{"email": email, "admin": sess.Admin})
	if sess.Admin {
		return c.Redirect("/admin")
	}
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies(sessionCookie)
	if err := h.Auth.Logout(sid); err != nil {
		log.Error(c, "auth.logout.fail", err, nil)
	}
	h.clearSession(c)
	log.Audit(c, "auth.logout", nil)
	setFlash(c, "success", "Logout successful.")
	return c.Redirect("/")
}
