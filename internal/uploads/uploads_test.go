package uploads

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDisk(t *testing.T) *DiskStore {
	t.Helper()
	s, err := NewDiskStore(filepath.Join(t.TempDir(), "nested", "uploads"))
	require.NoError(t, err)
	return s
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestExtension(t *testing.T) {
	h := NewHandler(nil, nil, 0)
	cases := []struct {
		name string
		ext  string
		ok   bool
	}{
		{"photo.JPG", "jpg", true},
		{"archive.tar.png", "png", true},
		{"a.webp", "webp", true},
		{"photo.EXE", "exe", false},
		{"noext", "", false},
		{"trailing.", "", false},
	}
	for _, tc := range cases {
		ext, ok := h.Extension(tc.name)
		assert.Equal(t, tc.ext, ext, tc.name)
		assert.Equal(t, tc.ok, ok, tc.name)
	}

	custom := NewHandler(nil, []string{".GIF"}, 0)
	_, ok := custom.Extension("x.gif")
	assert.True(t, ok)
	_, ok = custom.Extension("x.png")
	assert.False(t, ok)
}

func TestStoreFileUsesRandomNames(t *testing.T) {
	store := newDisk(t)
	h := NewHandler(store, nil, 0)
	ctx := context.Background()

	name, ok, err := h.StoreFile(ctx, "../../etc/photo.JPG", strings.NewReader("jpeg-data"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}\.jpg$`), name)

	again, _, err := h.StoreFile(ctx, "photo.JPG", strings.NewReader("jpeg-data"))
	require.NoError(t, err)
	assert.NotEqual(t, name, again)

	rc, err := store.Open(ctx, name)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-data", string(data))
}

func TestStoreFileRejectsDisallowed(t *testing.T) {
	store := newDisk(t)
	h := NewHandler(store, nil, 0)

	name, ok, err := h.StoreFile(context.Background(), "photo.EXE", strings.NewReader("MZ"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, name)

	entries, err := os.ReadDir(store.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	name, ok, err = h.Save(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestDownscale(t *testing.T) {
	store := newDisk(t)
	h := NewHandler(store, nil, 16)
	ctx := context.Background()

	name, ok, err := h.StoreFile(ctx, "big.png", bytes.NewReader(pngOf(t, 64, 32)))
	require.NoError(t, err)
	require.True(t, ok)

	f, err := os.Open(filepath.Join(store.Dir, name))
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 8, cfg.Height)

	small := pngOf(t, 8, 8)
	name, _, err = h.StoreFile(ctx, "small.png", bytes.NewReader(small))
	require.NoError(t, err)
	stored, err := os.ReadFile(filepath.Join(store.Dir, name))
	require.NoError(t, err)
	assert.Equal(t, small, stored, "small images are kept as uploaded")

	name, _, err = h.StoreFile(ctx, "broken.png", strings.NewReader("not a png"))
	require.NoError(t, err)
	stored, err = os.ReadFile(filepath.Join(store.Dir, name))
	require.NoError(t, err)
	assert.Equal(t, "not a png", string(stored))
}

// withDimensions rewrites the IHDR size of a PNG, leaving the pixel data alone.
func withDimensions(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := append([]byte(nil), data...)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDownscaleSkipsHugeImages(t *testing.T) {
	store := newDisk(t)
	h := NewHandler(store, nil, 16)
	assert.Equal(t, int64(DefaultMaxPixels), h.MaxPixels)
	ctx := context.Background()

	bomb := withDimensions(t, pngOf(t, 1, 1), 16000, 16000)
	cfg, err := png.DecodeConfig(bytes.NewReader(bomb))
	require.NoError(t, err)
	require.Equal(t, 16000, cfg.Width)

	name, ok, err := h.StoreFile(ctx, "bomb.png", bytes.NewReader(bomb))
	require.NoError(t, err)
	require.True(t, ok)
	stored, err := os.ReadFile(filepath.Join(store.Dir, name))
	require.NoError(t, err)
	assert.Equal(t, bomb, stored)

	h.MaxPixels = 100
	big := pngOf(t, 64, 32)
	name, _, err = h.StoreFile(ctx, "big.png", bytes.NewReader(big))
	require.NoError(t, err)
	stored, err = os.ReadFile(filepath.Join(store.Dir, name))
	require.NoError(t, err)
	assert.Equal(t, big, stored, "over the pixel cap, the upload is kept as is")
}

func TestDiskStoreDelete(t *testing.T) {
	store := newDisk(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "abc.png", []byte("x"), "image/png"))

	require.NoError(t, store.Delete(ctx, "abc.png"))
	assert.ErrorIs(t, store.Delete(ctx, "abc.png"), ErrMissing)
	_, err := store.Open(ctx, "abc.png")
	assert.ErrorIs(t, err, ErrMissing)

	assert.Error(t, store.Delete(ctx, "../abc.png"))
	assert.Error(t, store.Put(ctx, "a/b.png", []byte("x"), ""))
}

func TestValidName(t *testing.T) {
	for _, n := range []string{"abc.png", "0123456789abcdef.jpg", "image1.jpg"} {
		assert.True(t, ValidName(n), n)
	}
	for _, n := range []string{"", ".", "..", "../x.png", "a/b.png", `a\b.png`, "x\x00.png", "..png"} {
		assert.False(t, ValidName(n), "%q", n)
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType("a.png"))
	assert.Equal(t, "image/jpeg", ContentType("a.JPG"))
	assert.Equal(t, "image/webp", ContentType("a.webp"))
	assert.Equal(t, "application/octet-stream", ContentType("noext"))
}
