package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DBDriver      string // sqlite | pgx
	DBDSN         string
	UploadDir     string
	AllowedExt    []string
	MaxUploadSize int
	MaxImageDim   uint
	TemplateDir   string
	LogFile       string
	SessionTTL    time.Duration
	SecureCookies bool

	PlaceholderDir string

	RateLimit     int // requests per minute per IP, all routes
	AuthRateLimit int // login/register attempts per 10 minutes per IP

	PasswordScheme string // pbkdf2 | bcrypt

	AdminName     string
	AdminEmail    string
	AdminPassword string

	MailHost     string
	MailPort     int
	MailUsername string
	MailPassword string
	MailFrom     string
	MailTo       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NotifyWorker  bool

	S3Bucket          string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string
}

// Load reads the environment, after merging an optional .env file from the
// working directory.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[warn] could not read .env: %v", err)
	}

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DBDSN:         getEnv("DB_DSN", "houselisting.db"),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		AllowedExt:    splitList(getEnv("UPLOAD_ALLOWED_EXT", "png,jpg,jpeg,webp")),
		MaxUploadSize: getInt("UPLOAD_MAX_BYTES", 16<<20),
		MaxImageDim:   uint(getInt("UPLOAD_MAX_DIMENSION", 1920)),
		TemplateDir:   getEnv("TEMPLATE_DIR", "./web/templates"),
		LogFile:       getEnv("LOG_FILE", "./houselisting.log"),
		SessionTTL:    getDuration("SESSION_TTL", 7*24*time.Hour),
		SecureCookies: getBool("SECURE_COOKIES", false),

		PlaceholderDir: getEnv("PLACEHOLDER_DIR", "./web/static/placeholders"),

		RateLimit:     getInt("RATE_LIMIT", 120),
		AuthRateLimit: getInt("AUTH_RATE_LIMIT", 10),

		PasswordScheme: getEnv("PASSWORD_SCHEME", "pbkdf2"),

		AdminName:     getEnv("ADMIN_NAME", "admin"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		MailHost:     os.Getenv("MAIL_HOST"),
		MailPort:     getInt("MAIL_PORT", 465),
		MailUsername: os.Getenv("MAIL_USERNAME"),
		MailPassword: os.Getenv("MAIL_PASSWORD"),
		MailFrom:     os.Getenv("MAIL_FROM"),
		MailTo:       os.Getenv("MAIL_TO"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),
		NotifyWorker:  getBool("NOTIFY_WORKER", true),

		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
	}
	if cfg.MailTo == "" {
		cfg.MailTo = cfg.MailFrom
	}

	log.Printf("[config] PORT=%s DB_DRIVER=%s DB_DSN=%s UPLOAD_DIR=%s S3_BUCKET=%s MAIL_HOST=%s REDIS_ADDR=%s LOG_FILE=%s",
		cfg.Port, cfg.DBDriver, redactDSN(cfg.DBDSN), cfg.UploadDir, cfg.S3Bucket, cfg.MailHost, cfg.RedisAddr, cfg.LogFile)
	return cfg
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[warn] %s=%q is not an integer, using %d", key, v, def)
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[warn] %s=%q is not a boolean, using %t", key, v, def)
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[warn] %s=%q is not a positive duration, using %s", key, v, def)
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(p), "."))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// redactDSN hides credentials in postgres URLs before they reach the log.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	return dsn[:scheme+3] + "***" + dsn[at:]
}
