package handlers_test

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminPagesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	l := env.addListing("Cottage", 100, "Leeds")
	remove := "/remove_house/" + strconv.FormatInt(l.ID, 10)

	anon := env.client()
	for _, path := range []string{"/admin", "/add_house"} {
		resp := anon.get(path)
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}
	resp := anon.postForm(remove, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	user := env.client()
	require.Equal(t, http.StatusFound, user.register("Eve", "eve@houses.test", "Passw0rd!").StatusCode)
	for _, path := range []string{"/admin", "/add_house"} {
		resp := user.get(path)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
		assert.Contains(t, readBody(t, resp), "Access denied")
	}
	resp = user.postForm(remove, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = user.postMultipart("/add_house", map[string]string{"title": "X", "price": "1", "location": "Y"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	assert.Equal(t, 1, env.countRows("listings"), "non-admin changed listings")
}

func TestUserPagesRequireLogin(t *testing.T) {
	env := newTestEnv(t)
	l := env.addListing("Cottage", 100, "Leeds")
	cl := env.client()

	resp := cl.get("/my_contacts")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = cl.postForm("/contact", url.Values{"house_id": {strconv.FormatInt(l.ID, 10)}, "message": {"Hi"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Equal(t, 0, env.countRows("inquiries"))

	assert.Contains(t, readBody(t, cl.get("/login")), "Please log in to continue.")
}

func TestAccessDeniedIsLogged(t *testing.T) {
	env := newTestEnv(t)
	user := env.client()
	require.Equal(t, http.StatusFound, user.register("Eve", "eve@houses.test", "Passw0rd!").StatusCode)

	entries := captureLogs(t, func() { user.get("/admin") })
	e, ok := findLog(entries, "access.denied.admin")
	require.True(t, ok)
	assert.Equal(t, "forbidden", e.Fields["reason"])
	assert.NotZero(t, e.UserID)
}
