package handlers

import (
	"errors"
	"strconv"

	"github.com/Gupta12p/HouseListing/internal/domain"
	applog "github.com/Gupta12p/HouseListing/internal/log"
	"github.com/Gupta12p/HouseListing/internal/services"
	"github.com/Gupta12p/HouseListing/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type InquiryHandler struct {
	Inquiries *services.InquiryService
}

// POST /contact (RequireUser)
func (h *InquiryHandler) Contact(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	id, ok := validate.ID(c.FormValue("house_id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "house_id"})
		return notFound(c, fiber.StatusNotFound, "House not found.")
	}
	back := "/house/" + strconv.FormatInt(id, 10)

	q, created, err := h.Inquiries.Create(c.UserContext(), u, id, c.FormValue("message"))
	var fe *services.FieldError
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return c.Redirect("/login")
	case errors.Is(err, services.ErrNotFound):
		return notFound(c, fiber.StatusNotFound, "House not found.")
	case errors.As(err, &fe):
		applog.Security(c, "validation.fail", map[string]any{"field": fe.Field})
		setFlash(c, "error", "Please write a message (up to 2000 characters).")
		return c.Redirect(back)
	case err != nil:
		applog.Error(c, "inquiry.create.fail", err, map[string]any{"listing_id": id})
		return err
	}

	if !created {
		applog.Info(c, "inquiry.duplicate", map[string]any{"listing_id": id, "inquiry_id": q.ID})
		setFlash(c, "info", "You have already contacted the admin for this house.")
		return c.Redirect(back)
	}
	applog.Audit(c, "inquiry.create", map[string]any{"listing_id": id, "inquiry_id": q.ID})
	setFlash(c, "success", "Your message has been sent to the admin.")
	return c.Redirect(back)
}

// GET /my_contacts (RequireUser)
func (h *InquiryHandler) MyContacts(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	list, err := h.Inquiries.ListForUser(u)
	if errors.Is(err, services.ErrUnauthenticated) {
		return c.Redirect("/login")
	}
	if err != nil {
		applog.Error(c, "inquiry.list.fail", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load your contacts")
	}
	return render(c, "my_contacts", fiber.Map{"Contacts": list})
}
