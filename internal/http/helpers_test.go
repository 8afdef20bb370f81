package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Gupta12p/HouseListing/internal/config"
	"github.com/Gupta12p/HouseListing/internal/domain"
	"github.com/Gupta12p/HouseListing/internal/http/handlers"
	"github.com/Gupta12p/HouseListing/internal/notify"
	"github.com/Gupta12p/HouseListing/internal/repos"
	"github.com/Gupta12p/HouseListing/internal/services"
	"github.com/Gupta12p/HouseListing/internal/uploads"
)

const (
	adminEmail = "admin@houses.test"
	adminPass  = "AdminPassw0rd"
)

// recorder collects inquiry events instead of sending them.
type recorder struct {
	mu     sync.Mutex
	events []notify.InquiryEvent
}

func (r *recorder) Notify(_ context.Context, ev notify.InquiryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Events() []notify.InquiryEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.InquiryEvent(nil), r.events...)
}

type testEnv struct {
	t     *testing.T
	app   *fiber.App
	db    *sqlx.DB
	auth  *services.AuthService
	store *uploads.DiskStore
	sent  *recorder
}

// newTestEnv wires the real routes over an in-memory database, a temp upload
// dir and a recording notifier. An administrator is seeded.
func newTestEnv(t *testing.T, tweak ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := config.Config{
		TemplateDir:   "../../web/templates",
		AllowedExt:    uploads.DefaultAllowed,
		MaxUploadSize: 4 << 20,
	}
	for _, f := range tweak {
		f(&cfg)
	}

	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hasher := &services.PasswordHasher{Scheme: services.SchemePBKDF2, Iterations: 1000, SaltLength: 16}
	auth := services.NewAuthService(repos.NewUserRepo(db), hasher, time.Hour)
	_, err = auth.EnsureAdmin("admin", adminEmail, adminPass)
	require.NoError(t, err)

	store, err := uploads.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	sent := &recorder{}

	app := fiber.New(fiber.Config{
		Views:        html.New(cfg.TemplateDir, ".html"),
		BodyLimit:    cfg.MaxUploadSize,
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(requestid.New())
	app.Use(handlers.AttachUser(auth))
	app.Use(handlers.CSRF(false))

	deps := handlers.NewDeps(db, cfg, auth, uploads.NewHandler(store, cfg.AllowedExt, cfg.MaxImageDim), sent)
	deps.Routes(app)
	app.Use(handlers.NotFound)

	return &testEnv{t: t, app: app, db: db, auth: auth, store: store, sent: sent}
}

// addListing inserts a listing directly, bypassing the admin form.
func (e *testEnv) addListing(title string, price int64, location string) domain.Listing {
	e.t.Helper()
	l := domain.Listing{
		Title: title, Price: price, Location: location, Description: title + " description",
		Image1: domain.PlaceholderImage1, Image2: domain.PlaceholderImage2, Image3: domain.PlaceholderImage3,
	}
	require.NoError(e.t, repos.NewListingRepo(e.db).Create(&l))
	return l
}

func (e *testEnv) countRows(table string) int {
	e.t.Helper()
	var n int
	require.NoError(e.t, e.db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

// client is a tiny cookie-keeping browser over app.Test.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func (e *testEnv) client() *client {
	return &client{t: e.t, app: e.app, cookies: map[string]string{}}
}

func (cl *client) do(req *http.Request) *http.Response {
	cl.t.Helper()
	for name, v := range cl.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: v})
	}
	resp, err := cl.app.Test(req, -1)
	require.NoError(cl.t, err)
	for _, c := range resp.Cookies() {
		if c.Value == "" || c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(cl.cookies, c.Name)
			continue
		}
		cl.cookies[c.Name] = c.Value
	}
	return resp
}

func (cl *client) get(path string) *http.Response {
	cl.t.Helper()
	return cl.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// csrf returns the current token, fetching a page first if needed.
func (cl *client) csrf() string {
	cl.t.Helper()
	if tok := cl.cookies["csrf_"]; tok != "" {
		return tok
	}
	cl.get("/login")
	tok := cl.cookies["csrf_"]
	require.NotEmpty(cl.t, tok, "csrf cookie missing")
	return tok
}

func (cl *client) postForm(path string, vals url.Values) *http.Response {
	cl.t.Helper()
	if vals == nil {
		vals = url.Values{}
	}
	vals.Set("csrf", cl.csrf())
	return cl.do(newFormRequest(path, vals))
}

func newFormRequest(path string, vals url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

type filePart struct {
	field, name string
	data        []byte
}

func (cl *client) postMultipart(path string, fields map[string]string, files ...filePart) *http.Response {
	cl.t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(cl.t, w.WriteField("csrf", cl.csrf()))
	for k, v := range fields {
		require.NoError(cl.t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.name)
		require.NoError(cl.t, err)
		_, err = fw.Write(f.data)
		require.NoError(cl.t, err)
	}
	require.NoError(cl.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return cl.do(req)
}

func (cl *client) login(email, pass string) *http.Response {
	cl.t.Helper()
	return cl.postForm("/login", url.Values{"email": {email}, "password": {pass}})
}

func (cl *client) register(name, email, pass string) *http.Response {
	cl.t.Helper()
	return cl.postForm("/register", url.Values{"name": {name}, "email": {email}, "password": {pass}})
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID int64          `json:"user_id"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.buf.Write(p)
}

// captureLogs swaps the standard logger output while fn runs and returns
// the JSON entries written.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	lw := &lockedWriter{}
	oldW, oldFlags := log.Writer(), log.Flags()
	log.SetOutput(lw)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(lw.buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
