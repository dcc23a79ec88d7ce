package helpers

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	passwordSaltSize = 16
	passwordKeySize  = 32

	// DefaultPasswordIterations is used when PasswordHasher.Iterations is unset.
	DefaultPasswordIterations = 210000
)

var ErrEmptyPassword = errors.New("password cannot be empty")

// PasswordHasher derives PBKDF2-SHA512 hashes encoded as
// "{iterations}.{base64 salt}.{base64 key}". The iteration count travels with
// each hash so older hashes stay verifiable after the default is raised.
type PasswordHasher struct {
	Iterations int

	dummyOnce sync.Once
	dummy     string
}

func NewPasswordHasher(iterations int) *PasswordHasher {
	if iterations <= 0 {
		iterations = DefaultPasswordIterations
	}
	return &PasswordHasher{Iterations: iterations}
}

// Hash derives a new hash with a fresh random salt.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrEmptyPassword
	}
	iter := h.Iterations
	if iter <= 0 {
		iter = DefaultPasswordIterations
	}
	salt := make([]byte, passwordSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(password), salt, iter, passwordKeySize, sha512.New)
	return strconv.Itoa(iter) + "." +
		base64.StdEncoding.EncodeToString(salt) + "." +
		base64.StdEncoding.EncodeToString(key), nil
}

// Verify reports whether password matches stored. Malformed input yields false.
func (h *PasswordHasher) Verify(password, stored string) bool {
	if password == "" {
		return false
	}
	parts := strings.Split(stored, ".")
	if len(parts) != 3 {
		return false
	}
	iter, err := strconv.Atoi(parts[0])
	if err != nil || iter <= 0 {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, iter, len(want), sha512.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// DummyHash returns a hash of a random secret built once with the hasher's
// iteration count. Verifying against it costs the same as a real check.
func (h *PasswordHasher) DummyHash() string {
	h.dummyOnce.Do(func() {
		secret := make([]byte, passwordKeySize)
		_, _ = rand.Read(secret)
		h.dummy, _ = h.Hash(base64.StdEncoding.EncodeToString(secret))
	})
	return h.dummy
}
