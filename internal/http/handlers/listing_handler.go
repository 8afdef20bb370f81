package handlers

import (
	"errors"

	"github.com/Gupta12p/HouseListing/internal/domain"
	"github.com/Gupta12p/HouseListing/internal/log"
	"github.com/Gupta12p/HouseListing/internal/services"
	"github.com/Gupta12p/HouseListing/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ListingHandler struct {
	Catalog   *services.CatalogService
	Inquiries *services.InquiryService
}

// GET /
func (h *ListingHandler) Home(c *fiber.Ctx) error {
	listings, err := h.Catalog.ListAll(services.SearchQuery{})
	if err != nil {
		log.Error(c, "listing.home.fail", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load listings. Please retry.")
	}
	return render(c, "home", fiber.Map{"Listings": listings})
}

// GET/POST /search?location=&sort_order=asc|desc
func (h *ListingHandler) Search(c *fiber.Ctx) error {
	location := param(c, "location")
	sort := param(c, "sort_order")

	listings, err := h.Catalog.ListAll(services.SearchQuery{Location: location, Sort: sort})
	var fe *services.FieldError
	if errors.As(err, &fe) {
		log.Security(c, "validation.fail", map[string]any{"field": fe.Field, "value": location})
		c.Status(fiber.StatusBadRequest)
		return render(c, "search", fiber.Map{
			"Location": "", "SortOrder": "", "Listings": []domain.Listing{}, "Count": 0,
			"Err": "Please check the " + fe.Field + " field: " + fe.Reason,
		})
	}
	if err != nil {
		log.Error(c, "search.error", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load results. Please retry.")
	}
	sort, _ = validate.SortOrder(sort)
	return render(c, "search", fiber.Map{
		"Location": location, "SortOrder": sort, "Listings": listings, "Count": len(listings),
	})
}

// GET /house/:id
func (h *ListingHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "house"})
		return notFound(c, fiber.StatusNotFound, "This house is no longer available")
	}
	l, err := h.Catalog.Get(id)
	if errors.Is(err, services.ErrNotFound) {
		return notFound(c, fiber.StatusNotFound, "This house is no longer available")
	}
	if err != nil {
		return err
	}

	contacted := false
	if u, _ := c.Locals("user").(*domain.User); u != nil {
		if contacted, err = h.Inquiries.HasContacted(u, l.ID); err != nil {
			log.Error(c, "inquiry.lookup.fail", err, map[string]any{"listing_id": l.ID})
		}
	}
	return render(c, "house", fiber.Map{"House": l, "Contacted": contacted})
}
