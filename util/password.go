package util

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Prefix  = "argon2id$"
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
	resetTokenLen = 32
)

var (
	jwtSecretByte = []byte(os.Getenv("JWTSECRET"))
	jwtMutex      sync.RWMutex
)

// HashPassword is the legacy HMAC-SHA256 scheme keyed by the JWT secret.
// New hashes use HashPasswordArgon2; legacy ones are upgraded on login.
func HashPassword(password string) string {
	h := hmac.New(sha256.New, GetJWTSecretByte())
	h.Write([]byte(password))
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateSalt returns a random base64 salt.
func GenerateSalt() (string, error) {
	b := make([]byte, saltLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawStdEncoding.EncodeToString(b), nil
}

// GenerateResetToken returns a random URL-safe token and its SHA-256 digest.
// The token goes to the user; only the digest is persisted.
func GenerateResetToken() (token, digest string, err error) {
	b := make([]byte, resetTokenLen)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(b)
	return token, HashResetToken(token), nil
}

// HashResetToken is the lookup digest of a reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// HashPasswordArgon2 derives an argon2id key for password and salt and
// returns it as "argon2id$<base64 key>".
func HashPasswordArgon2(password, salt string) (string, error) {
	if salt == "" {
		return "", errors.New("salt is required")
	}
	key := argon2.IDKey([]byte(password), []byte(salt), argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return argon2Prefix + base64.RawStdEncoding.EncodeToString(key), nil
}

// IsArgon2Hash reports whether stored was produced by HashPasswordArgon2.
func IsArgon2Hash(stored string) bool {
	return strings.HasPrefix(stored, argon2Prefix)
}

// VerifyPassword compares plain with a stored hash in constant time. Stored
// values without the argon2id prefix are checked against the legacy scheme.
func VerifyPassword(plain, stored, salt string) (bool, error) {
	if stored == "" {
		return false, nil
	}
	var candidate string
	if IsArgon2Hash(stored) {
		h, err := HashPasswordArgon2(plain, salt)
		if err != nil {
			return false, err
		}
		candidate = h
	} else {
		candidate = HashPassword(plain)
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(stored)) == 1, nil
}

// SetJWTSecret replaces the secret used for token signing and legacy password
// hashing. Tests that depend on a fixed secret must not run in parallel.
func SetJWTSecret(secret string) {
	jwtMutex.Lock()
	defer jwtMutex.Unlock()
	jwtSecretByte = []byte(secret)
}

// GetJWTSecretByte returns a copy of the current JWT secret.
func GetJWTSecretByte() []byte {
	jwtMutex.RLock()
	defer jwtMutex.RUnlock()
	return append([]byte(nil), jwtSecretByte...)
}
