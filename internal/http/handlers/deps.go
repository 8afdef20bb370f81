package handlers

import (
	"time"

	"github.com/Gupta12p/HouseListing/internal/config"
	applog "github.com/Gupta12p/HouseListing/internal/log"
	"github.com/Gupta12p/HouseListing/internal/notify"
	"github.com/Gupta12p/HouseListing/internal/repos"
	"github.com/Gupta12p/HouseListing/internal/services"
	"github.com/Gupta12p/HouseListing/internal/uploads"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/jmoiron/sqlx"
)

type Deps struct {
	DB   *sqlx.DB
	Auth *services.AuthService

	AuthHandler    *AuthHandler
	ListingHandler *ListingHandler
	InquiryHandler *InquiryHandler
	AdminHandler   *AdminHandler
	UploadHandler  *UploadHandler

	authLimit int
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, up *uploads.Handler, n notify.Notifier) *Deps {
	listingRepo := repos.NewListingRepo(db)
	inquiryRepo := repos.NewInquiryRepo(db)

	catalogSvc := services.NewCatalogService(listingRepo, up)
	inquirySvc := services.NewInquiryService(inquiryRepo, listingRepo, n)

	d := &Deps{
		DB:             db,
		Auth:           auth,
		AuthHandler:    &AuthHandler{Auth: auth, SecureCookies: cfg.SecureCookies},
		ListingHandler: &ListingHandler{Catalog: catalogSvc, Inquiries: inquirySvc},
		InquiryHandler: &InquiryHandler{Inquiries: inquirySvc},
		AdminHandler:   &AdminHandler{Catalog: catalogSvc, Inquiries: inquiryRepo},
		authLimit:      cfg.AuthRateLimit,
	}
	if up != nil {
		d.UploadHandler = &UploadHandler{Store: up.Store, PlaceholderDir: cfg.PlaceholderDir}
	}
	return d
}

// authLimiter throttles credential posts per IP. A limit of zero turns it off.
func (d *Deps) authLimiter(view string) fiber.Handler {
	if d.authLimit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        d.authLimit,
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + view
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate."+view+".hit", nil)
			c.Status(fiber.StatusTooManyRequests)
			return render(c, view, fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	})
}

// Routes mounts every page of the site on r.
func (d *Deps) Routes(r fiber.Router) {
	user := RequireUser(d.Auth)
	admin := RequireAdmin(d.Auth)

	// Public pages
	r.Get("/", d.ListingHandler.Home)
	r.Get("/search", d.ListingHandler.Search)
	r.Post("/search", d.ListingHandler.Search)
	r.Get("/house/:id", d.ListingHandler.Detail)
	if d.UploadHandler != nil {
		r.Get("/uploads/:filename", d.UploadHandler.Serve)
	}

	// Accounts
	r.Get("/register", d.AuthHandler.RegisterForm)
	r.Post("/register", d.authLimiter("register"), d.AuthHandler.Register)
	r.Get("/login", d.AuthHandler.LoginForm)
	r.Post("/login", d.authLimiter("login"), d.AuthHandler.Login)
	r.Get("/logout", d.AuthHandler.Logout)
	r.Post("/logout", d.AuthHandler.Logout)

	// Inquiries
	r.Post("/contact", user, d.InquiryHandler.Contact)
	r.Get("/my_contacts", user, d.InquiryHandler.MyContacts)

	r.Get("/healthz", d.Health)

	// Admin
	r.Get("/admin", admin, d.AdminHandler.Dashboard)
	r.Get("/add_house", admin, d.AdminHandler.AddHouseForm)
	r.Post("/add_house", admin, d.AdminHandler.AddHouse)
	r.Post("/remove_house/:id", admin, d.AdminHandler.RemoveHouse)
}

// GET /healthz
func (d *Deps) Health(c *fiber.Ctx) error {
	if err := d.DB.PingContext(c.UserContext()); err != nil {
		applog.Error(c, "health.db.fail", err, nil)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
	}
	return c.JSON(fiber.Map{"ok": true})
}
