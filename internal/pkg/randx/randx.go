/*
Package randx generates record identifiers and cryptographically secure random tokens.
*/
package randx

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// ID returns a new UUID v4 string used as the primary key of stored records.
func ID() string {
	return uuid.New().String()
}

// IsValidID reports whether id is a parseable UUID.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// HexToken returns n random bytes from crypto/rand encoded as lowercase hex.
func HexToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
