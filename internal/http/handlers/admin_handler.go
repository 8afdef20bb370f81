package handlers

import (
	"errors"
	"mime/multipart"

	"github.com/Gupta12p/HouseListing/internal/domain"
	applog "github.com/Gupta12p/HouseListing/internal/log"
	"github.com/Gupta12p/HouseListing/internal/repos"
	"github.com/Gupta12p/HouseListing/internal/services"
	"github.com/Gupta12p/HouseListing/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Catalog   *services.CatalogService
	Inquiries *repos.InquiryRepo
}

// dashboardRow pairs a listing with how many users contacted it.
type dashboardRow struct {
	domain.Listing
	Inquiries int
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	listings, err := h.Catalog.ListAll(services.SearchQuery{})
	if err != nil {
		applog.Error(c, "admin.listings.list.fail", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load listings")
	}
	counts, err := h.Inquiries.CountByListing()
	if err != nil {
		applog.Warn(c, "admin.inquiries.count.fail", err, nil)
		counts = map[int64]int{}
	}
	rows := make([]dashboardRow, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, dashboardRow{Listing: l, Inquiries: counts[l.ID]})
	}
	return render(c, "admin", fiber.Map{"Rows": rows})
}

// GET /add_house
func (h *AdminHandler) AddHouseForm(c *fiber.Ctx) error {
	return render(c, "add_house", fiber.Map{"Err": ""})
}

// POST /add_house (multipart)
func (h *AdminHandler) AddHouse(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	in := services.ListingInput{
		Title:       c.FormValue("title"),
		Location:    c.FormValue("location"),
		Description: c.FormValue("description"),
	}
	price, ok := validate.Price(c.FormValue("price"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "price"})
		c.Status(fiber.StatusBadRequest)
		return render(c, "add_house", fiber.Map{"Err": "Price must be a whole, non-negative number", "Form": in})
	}
	in.Price = price

	images := make([]*multipart.FileHeader, domain.MaxImages)
	for i, field := range []string{"image_1", "image_2", "image_3"} {
		if fh, err := c.FormFile(field); err == nil {
			images[i] = fh
		}
	}

	l, err := h.Catalog.Create(c.UserContext(), u, in, images)
	var fe *services.FieldError
	switch {
	case errors.As(err, &fe):
		applog.Security(c, "validation.fail", map[string]any{"field": fe.Field})
		c.Status(fiber.StatusBadRequest)
		return render(c, "add_house", fiber.Map{"Err": "Please check the " + fe.Field + " field: " + fe.Reason, "Form": in})
	case err != nil:
		applog.Error(c, "admin.listing.create.fail", err, nil)
		return err
	}

	applog.Audit(c, "admin.listing.create", map[string]any{"listing_id": l.ID, "images": l.Images()})
	setFlash(c, "success", "House added successfully.")
	return c.Redirect("/admin")
}

// POST /remove_house/:id
func (h *AdminHandler) RemoveHouse(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, fiber.StatusNotFound, "House not found.")
	}
	rep, err := h.Catalog.Remove(c.UserContext(), u, id)
	if errors.Is(err, services.ErrNotFound) {
		return notFound(c, fiber.StatusNotFound, "House not found.")
	}
	if err != nil {
		applog.Error(c, "admin.listing.remove.fail", err, map[string]any{"listing_id": id})
		return err
	}

	for _, fe := range rep.FileErrors {
		applog.Warn(c, "admin.listing.image.remove.fail", fe.Err, map[string]any{
			"listing_id": id, "file": fe.Name, "missing": fe.Missing,
		})
	}
	applog.Audit(c, "admin.listing.remove", map[string]any{"listing_id": id, "files": rep.Removed})
	setFlash(c, "success", "House removed successfully.")
	return c.Redirect("/admin")
}
