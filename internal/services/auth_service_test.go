package services_test

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gupta12p/HouseListing/internal/domain"
	"github.com/Gupta12p/HouseListing/internal/repos"
	"github.com/Gupta12p/HouseListing/internal/services"
)

func bytesReader(s string) io.Reader { return bytes.NewReader([]byte(s)) }

func TestRegisterAndLogin(t *testing.T) {
	db := memdb(t)
	auth := services.NewAuthService(repos.NewUserRepo(db), fastHasher(), time.Hour)

	sess, err := auth.Register(" Sam ", "sam@houses.test", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "Sam", sess.User.Name)
	assert.False(t, sess.Admin)
	assert.NotEmpty(t, sess.ID)

	u, err := auth.CurrentUser(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, u.ID)

	_, err = auth.Register("Sam again", "SAM@houses.test", "Passw0rd!")
	assert.ErrorIs(t, err, services.ErrDuplicateEmail)
	assert.ErrorIs(t, err, services.ErrConflict)

	_, err = auth.Login("nobody@houses.test", "Passw0rd!")
	assert.ErrorIs(t, err, services.ErrUnknownEmail)
	_, err = auth.Login("sam@houses.test", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	second, err := auth.Login("Sam@Houses.test", "Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, second.ID)
}

func TestSessionsExpireAndLogout(t *testing.T) {
	db := memdb(t)
	users := repos.NewUserRepo(db)
	auth := services.NewAuthService(users, fastHasher(), time.Hour)
	sess, err := auth.Register("Tia", "tia@houses.test", "Passw0rd!")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, users.CreateSession(domain.Session{
		ID: "stale", UserID: sess.User.ID, CreatedAt: domain.Stamp(past), ExpiresAt: domain.Stamp(past.Add(time.Hour)),
	}))
	_, err = auth.CurrentUser("stale")
	assert.ErrorIs(t, err, services.ErrUnauthenticated)

	n, err := auth.PurgeExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, auth.Logout(sess.ID))
	_, err = auth.CurrentUser(sess.ID)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
	_, err = auth.CurrentUser("")
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
}

func TestRequireAdmin(t *testing.T) {
	db := memdb(t)
	auth := services.NewAuthService(repos.NewUserRepo(db), fastHasher(), time.Hour)
	_, err := auth.EnsureAdmin("", "root@houses.test", "RootPassw0rd")
	require.NoError(t, err)

	admin, err := auth.Login("root@houses.test", "RootPassw0rd")
	require.NoError(t, err)
	user, err := auth.Register("Uma", "uma@houses.test", "Passw0rd!")
	require.NoError(t, err)

	u, err := auth.RequireAdmin(admin.ID)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.Equal(t, "admin", u.Name)

	_, err = auth.RequireAdmin(user.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = auth.RequireAdmin("")
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
	_, err = auth.RequireAuthenticated(user.ID)
	assert.NoError(t, err)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	db := memdb(t)
	users := repos.NewUserRepo(db)
	auth := services.NewAuthService(users, fastHasher(), time.Hour)

	created, err := auth.EnsureAdmin("admin", "root@houses.test", "RootPassw0rd")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = auth.EnsureAdmin("admin", "root@houses.test", "other")
	require.NoError(t, err)
	assert.False(t, created)
	created, err = auth.EnsureAdmin("admin", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	n, err := users.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPasswordHasher(t *testing.T) {
	h := fastHasher()
	stored, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored, "pbkdf2:sha256:1000$"))
	assert.True(t, h.Verify(stored, "s3cret-pass"))
	assert.False(t, h.Verify(stored, "s3cret-pasS"))

	other, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, stored, other, "salt must differ")

	b := &services.PasswordHasher{Scheme: services.SchemeBcrypt, BcryptCost: 4}
	bs, err := b.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(bs, "$2"))
	assert.True(t, h.Verify(bs, "s3cret-pass"), "bcrypt hashes verify under any scheme")

	for _, bad := range []string{"", "plain", "pbkdf2:md5:10$salt$abcd", "pbkdf2:sha256:x$salt$abcd", "pbkdf2:sha256:10$salt$zz"} {
		assert.False(t, h.Verify(bad, "s3cret-pass"), bad)
	}
}

func TestPasswordHasherReadsWerkzeugHashes(t *testing.T) {
	// pbkdf2:sha256 with 1 iteration, salt "salt", password "password"
	stored := "pbkdf2:sha256:1$salt$120fb6cffcf8b32c43e7225256c4f837a86548c92ccc35480805987cb70be17b"
	h := services.NewPasswordHasher("")
	assert.Equal(t, services.SchemePBKDF2, h.Scheme)
	assert.True(t, h.Verify(stored, "password"))
	assert.False(t, h.Verify(stored, "Password"))
}
