// Command notifyworker drains queued inquiry notifications from Redis and
// emails them to the operator. Run it when the web process has
// NOTIFY_WORKER=false.
package main

import (
	"log"

	html "github.com/gofiber/template/html/v2"

	"github.com/Gupta12p/HouseListing/internal/config"
	"github.com/Gupta12p/HouseListing/internal/notify"
)

func main() {
	cfg := config.Load()
	if cfg.RedisAddr == "" {
		log.Fatal("REDIS_ADDR is required")
	}

	rdb, err := notify.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}
	defer rdb.Close()

	var deliver notify.Notifier = notify.LogNotifier{}
	if cfg.MailHost != "" && cfg.MailFrom != "" {
		engine := html.New(cfg.TemplateDir, ".html")
		deliver = notify.NewMailNotifier(notify.MailConfig{
			Host:     cfg.MailHost,
			Port:     cfg.MailPort,
			Username: cfg.MailUsername,
			Password: cfg.MailPassword,
			From:     cfg.MailFrom,
			To:       cfg.MailTo,
		}, engine)
	}

	w := notify.NewWorker(rdb, deliver, 4)
	log.Printf("[notifyworker] consuming from %s", cfg.RedisAddr)
	if err := w.Run(); err != nil {
		log.Fatal(err)
	}
}
