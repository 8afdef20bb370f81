package repos

import (
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// OpenDB connects with driver ("sqlite" or "pgx") and ensures the schema exists.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		driver = "sqlite"
	}
	if driver == "postgres" {
		driver = "pgx"
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "repo: open")
	}
	if driver == "sqlite" {
		// One connection keeps :memory: databases and PRAGMAs on a single handle.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "repo: ping")
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	stmts := sqliteSchema
	if db.DriverName() == "pgx" {
		stmts = postgresSchema
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return errors.Wrapf(err, "repo: schema %q", firstLine(s))
		}
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Inquiries reference listings without ON DELETE CASCADE: removing a listing
// must delete its inquiries explicitly (ListingRepo.DeleteCascade).
var sqliteSchema = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS users(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  password TEXT NOT NULL,
  is_admin INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email))`,
	`CREATE TABLE IF NOT EXISTS listings(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  price INTEGER NOT NULL CHECK (price >= 0),
  location TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  image_1 TEXT NOT NULL DEFAULT 'image1.jpg',
  image_2 TEXT NOT NULL DEFAULT 'image2.jpg',
  image_3 TEXT NOT NULL DEFAULT 'image3.jpg',
  created_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price)`,
	`CREATE TABLE IF NOT EXISTS inquiries(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL REFERENCES users(id),
  listing_id INTEGER NOT NULL REFERENCES listings(id),
  message TEXT NOT NULL,
  created_at TEXT NOT NULL,
  UNIQUE(user_id, listing_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_inquiries_listing ON inquiries(listing_id)`,
	`CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at TEXT NOT NULL,
  expires_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users(
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  password TEXT NOT NULL,
  is_admin BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TEXT NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email))`,
	`CREATE TABLE IF NOT EXISTS listings(
  id BIGSERIAL PRIMARY KEY,
  title TEXT NOT NULL,
  price BIGINT NOT NULL CHECK (price >= 0),
  location TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  image_1 TEXT NOT NULL DEFAULT 'image1.jpg',
  image_2 TEXT NOT NULL DEFAULT 'image2.jpg',
  image_3 TEXT NOT NULL DEFAULT 'image3.jpg',
  created_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price)`,
	`CREATE TABLE IF NOT EXISTS inquiries(
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id),
  listing_id BIGINT NOT NULL REFERENCES listings(id),
  message TEXT NOT NULL,
  created_at TEXT NOT NULL,
  UNIQUE(user_id, listing_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_inquiries_listing ON inquiries(listing_id)`,
	`CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at TEXT NOT NULL,
  expires_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
}
