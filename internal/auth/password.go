package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// scrypt cost parameters. Changing them invalidates stored digests, so they
// are fixed here rather than configurable.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltBytes    = 128
)

// NewSalt returns a fresh random salt, base64-encoded.
func NewSalt() (string, error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// HashPassword derives the stored digest for a password and salt.
func HashPassword(password, salt string) (string, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("deriving password digest: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// VerifyPassword reports whether password matches the stored salt+digest.
func VerifyPassword(password, salt, digest string) bool {
	computed, err := HashPassword(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
