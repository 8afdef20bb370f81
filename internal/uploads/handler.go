package uploads

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/nfnt/resize"
)

var DefaultAllowed = []string{"png", "jpg", "jpeg", "webp"}

// DefaultMaxPixels caps the images downscale will decode.
const DefaultMaxPixels = 50_000_000

// Handler validates client uploads and stores them under generated names.
type Handler struct {
	Store   Store
	allowed map[string]bool
	// MaxDim bounds width and height of stored PNG/JPEG images; 0 disables downscaling.
	MaxDim uint
	// Images with more pixels than MaxPixels are stored without decoding.
	MaxPixels int64
}

func NewHandler(store Store, allowed []string, maxDim uint) *Handler {
	if len(allowed) == 0 {
		allowed = DefaultAllowed
	}
	m := make(map[string]bool, len(allowed))
	for _, ext := range allowed {
		m[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return &Handler{Store: store, allowed: m, MaxDim: maxDim, MaxPixels: DefaultMaxPixels}
}

// Extension returns the lower-cased last dot-separated segment of name and
// whether it is on the allow-list.
func (h *Handler) Extension(name string) (string, bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return "", false
	}
	ext := strings.ToLower(name[i+1:])
	return ext, h.allowed[ext]
}

// Save stores a multipart upload. A nil header or an unnamed field (no file
// chosen in the form) is reported as not stored, like a disallowed extension.
func (h *Handler) Save(ctx context.Context, fh *multipart.FileHeader) (string, bool, error) {
	if fh == nil || fh.Filename == "" {
		return "", false, nil
	}
	if _, ok := h.Extension(fh.Filename); !ok {
		return "", false, nil
	}
	f, err := fh.Open()
	if err != nil {
		return "", false, fmt.Errorf("uploads: open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return h.StoreFile(ctx, fh.Filename, f)
}

// StoreFile validates clientName's extension and writes r under a fresh
// random name. The client name contributes only its extension.
// Rejected files return ok=false with a nil error.
func (h *Handler) StoreFile(ctx context.Context, clientName string, r io.Reader) (string, bool, error) {
	ext, ok := h.Extension(clientName)
	if !ok {
		return "", false, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", false, fmt.Errorf("uploads: read %s: %w", clientName, err)
	}
	data = h.downscale(ext, data)

	name, err := randomName(ext)
	if err != nil {
		return "", false, err
	}
	if err := h.Store.Put(ctx, name, data, ContentType(name)); err != nil {
		return "", false, err
	}
	return name, true, nil
}

// downscale shrinks PNG/JPEG images larger than MaxDim. Anything that fails to
// decode or encode is stored unchanged.
func (h *Handler) downscale(ext string, data []byte) []byte {
	if h.MaxDim == 0 || (ext != "png" && ext != "jpg" && ext != "jpeg") {
		return data
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || (uint(cfg.Width) <= h.MaxDim && uint(cfg.Height) <= h.MaxDim) {
		return data
	}
	if int64(cfg.Width)*int64(cfg.Height) > h.MaxPixels {
		return data
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	small := resize.Thumbnail(h.MaxDim, h.MaxDim, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, small)
	case "jpeg":
		err = jpeg.Encode(&buf, small, &jpeg.Options{Quality: 85})
	default:
		return data
	}
	if err != nil {
		return data
	}
	return buf.Bytes()
}

func randomName(ext string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("uploads: random name: %w", err)
	}
	return hex.EncodeToString(b) + "." + ext, nil
}

// ContentType guesses the MIME type from name's extension.
func ContentType(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i >= 0 {
		if ct := mime.TypeByExtension(strings.ToLower(name[i:])); ct != "" {
			return ct
		}
		if strings.EqualFold(name[i:], ".webp") {
			return "image/webp"
		}
	}
	return "application/octet-stream"
}
