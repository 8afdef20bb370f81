package services

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SchemePBKDF2 = "pbkdf2"
	SchemeBcrypt = "bcrypt"

	defaultPBKDF2Iterations = 600000
	defaultSaltLength       = 16
	saltChars               = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// PasswordHasher produces and checks salted one-way password hashes.
//
// PBKDF2 hashes use the "pbkdf2:<digest>:<iterations>$<salt>$<hex>" encoding,
// so accounts from an existing werkzeug-hashed users table keep working.
// Verify also accepts bcrypt hashes regardless of the configured scheme.
type PasswordHasher struct {
	Scheme     string
	Iterations int
	SaltLength int
	BcryptCost int
}

func NewPasswordHasher(scheme string) *PasswordHasher {
	if scheme != SchemeBcrypt {
		scheme = SchemePBKDF2
	}
	return &PasswordHasher{
		Scheme:     scheme,
		Iterations: defaultPBKDF2Iterations,
		SaltLength: defaultSaltLength,
		BcryptCost: bcrypt.DefaultCost,
	}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.Scheme == SchemeBcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(password), h.BcryptCost)
		if err != nil {
			return "", fmt.Errorf("hash password: %w", err)
		}
		return string(b), nil
	}
	salt, err := genSalt(h.SaltLength)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	sum := pbkdf2.Key([]byte(password), []byte(salt), h.Iterations, sha256.Size, sha256.New)
	return fmt.Sprintf("pbkdf2:sha256:%d$%s$%s", h.Iterations, salt, hex.EncodeToString(sum)), nil
}

// Verify reports whether password matches the stored hash. Unknown or
// malformed encodings never match.
func (h *PasswordHasher) Verify(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	method, salt, want, ok := splitPBKDF2(stored)
	if !ok {
		return false
	}
	digest, iterations, ok := parseMethod(method)
	if !ok {
		return false
	}
	wantBytes, err := hex.DecodeString(want)
	if err != nil || len(wantBytes) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(wantBytes), digest)
	return subtle.ConstantTimeCompare(got, wantBytes) == 1
}

func splitPBKDF2(stored string) (method, salt, sum string, ok bool) {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "pbkdf2:") {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func parseMethod(method string) (func() hash.Hash, int, bool) {
	args := strings.Split(strings.TrimPrefix(method, "pbkdf2:"), ":")
	var digest func() hash.Hash
	switch args[0] {
	case "sha256":
		digest = sha256.New
	case "sha512":
		digest = sha512.New
	case "sha1":
		digest = sha1.New
	default:
		return nil, 0, false
	}
	iterations := defaultPBKDF2Iterations
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return nil, 0, false
		}
		iterations = n
	}
	return digest, iterations, true
}

func genSalt(n int) (string, error) {
	if n < 1 {
		n = defaultSaltLength
	}
	max := big.NewInt(int64(len(saltChars)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(saltChars[idx.Int64()])
	}
	return b.String(), nil
}
