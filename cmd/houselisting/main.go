package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"github.com/Gupta12p/HouseListing/internal/config"
	"github.com/Gupta12p/HouseListing/internal/http/handlers"
	applog "github.com/Gupta12p/HouseListing/internal/log"
	"github.com/Gupta12p/HouseListing/internal/notify"
	"github.com/Gupta12p/HouseListing/internal/repos"
	"github.com/Gupta12p/HouseListing/internal/services"
	"github.com/Gupta12p/HouseListing/internal/uploads"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Auth wiring
	authSvc := services.NewAuthService(repos.NewUserRepo(db), services.NewPasswordHasher(cfg.PasswordScheme), cfg.SessionTTL)
	if created, err := authSvc.EnsureAdmin(cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	} else if created {
		applog.Audit(nil, "admin.seeded", map[string]any{"email": cfg.AdminEmail})
	}
	if n, err := authSvc.PurgeExpired(); err == nil && n > 0 {
		applog.Info(nil, "sessions.purged", map[string]any{"count": n})
	}

	// Image storage
	var store uploads.Store
	if cfg.S3Bucket != "" {
		store, err = uploads.NewS3Store(context.Background(), uploads.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
		})
		log.Printf("[uploads] s3://%s", cfg.S3Bucket)
	} else {
		store, err = uploads.NewDiskStore(cfg.UploadDir)
		log.Printf("[uploads] %s", cfg.UploadDir)
	}
	if err != nil {
		log.Fatal(err)
	}
	up := uploads.NewHandler(store, cfg.AllowedExt, cfg.MaxImageDim)

	// Templates & app
	engine := html.New(cfg.TemplateDir, ".html")
	engine.Reload(true)

	notifier, teardown := buildNotifier(cfg, engine)
	defer teardown()

	app := fiber.New(fiber.Config{
		Views:        engine,
		BodyLimit:    cfg.MaxUploadSize,
		ErrorHandler: handlers.ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New(helmet.Config{
		// listing photos may come from the S3 endpoint
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))
	app.Use(handlers.AttachUser(authSvc))
	if cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return strings.HasPrefix(c.Path(), "/uploads/")
			},
		}))
	}
	app.Use(handlers.CSRF(cfg.SecureCookies))

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc, up, notifier)
	deps.Routes(app)

	app.Use(handlers.NotFound)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("[server] %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Printf("[server] shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
}

// buildNotifier picks how inquiry alerts leave the process: queued through
// Redis when REDIS_ADDR is set, otherwise sent on a background goroutine.
// The returned func releases whatever was started.
func buildNotifier(cfg config.Config, views notify.Renderer) (notify.Notifier, func()) {
	var deliver notify.Notifier = notify.LogNotifier{}
	if cfg.MailHost != "" && cfg.MailFrom != "" {
		deliver = notify.NewMailNotifier(notify.MailConfig{
			Host:     cfg.MailHost,
			Port:     cfg.MailPort,
			Username: cfg.MailUsername,
			Password: cfg.MailPassword,
			From:     cfg.MailFrom,
			To:       cfg.MailTo,
		}, views)
	} else {
		log.Printf("[notify] MAIL_HOST/MAIL_FROM not set, inquiries are only logged")
	}

	if cfg.RedisAddr != "" {
		rdb, err := notify.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			q := notify.NewQueue(rdb)
			var w *notify.Worker
			if cfg.NotifyWorker {
				w = notify.NewWorker(rdb, deliver, 2)
				if err := w.Start(); err != nil {
					log.Printf("[notify] worker start: %v", err)
					w = nil
				}
			}
			log.Printf("[notify] queueing through redis %s (in-process worker: %t)", cfg.RedisAddr, w != nil)
			return q, func() {
				if w != nil {
					w.Shutdown()
				}
				_ = q.Close()
				_ = rdb.Close()
			}
		}
		log.Printf("[warn] %v; falling back to in-process delivery", err)
	}

	a := notify.NewAsync(deliver, 30*time.Second)
	return a, a.Close
}
