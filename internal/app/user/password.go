package user

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"studyhive/internal/pkg/randx"
)

const (
	pbkdf2Iterations = 10000
	pbkdf2KeyLength  = 64
	saltBytes        = 16

	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 6
)

// HashPassword returns "salt:hash" where salt is 16 random bytes in hex and
// hash is PBKDF2-SHA512 of the password keyed by the hex salt string.
func HashPassword(password string) (string, error) {
	salt, err := randx.HexToken(saltBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt + ":" + derive(password, salt), nil
}

// VerifyPassword reports whether password matches a hash produced by HashPassword.
// Hashes without a ':' separator never match.
func VerifyPassword(password, hash string) bool {
	salt, want, found := strings.Cut(hash, ":")
	if !found || salt == "" || want == "" {
		return false
	}
	got := derive(password, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func derive(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLength, sha512.New)
	return hex.EncodeToString(key)
}
