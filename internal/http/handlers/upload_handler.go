package handlers

import (
	"errors"
	"path/filepath"

	"github.com/Gupta12p/HouseListing/internal/domain"
	applog "github.com/Gupta12p/HouseListing/internal/log"
	"github.com/Gupta12p/HouseListing/internal/uploads"

	"github.com/gofiber/fiber/v2"
)

type UploadHandler struct {
	Store uploads.Store
	// PlaceholderDir holds the stock images used for empty listing slots,
	// served when the store itself has no copy.
	PlaceholderDir string
}

// GET /uploads/:filename
func (h *UploadHandler) Serve(c *fiber.Ctx) error {
	name := c.Params("filename")
	if !uploads.ValidName(name) {
		applog.Security(c, "uploads.traversal.block", map[string]any{"path": name})
		return c.SendStatus(fiber.StatusNotFound)
	}
	rc, err := h.Store.Open(c.UserContext(), name)
	if errors.Is(err, uploads.ErrMissing) {
		if domain.IsPlaceholder(name) && h.PlaceholderDir != "" {
			return c.SendFile(filepath.Join(h.PlaceholderDir, name))
		}
		return c.SendStatus(fiber.StatusNotFound)
	}
	if err != nil {
		applog.Error(c, "uploads.open.fail", err, map[string]any{"file": name})
		return err
	}
	c.Set(fiber.HeaderContentType, uploads.ContentType(name))
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.SendStream(rc)
}
