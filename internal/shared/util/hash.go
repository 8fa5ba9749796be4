package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashKey returns a filesystem-safe identifier for an owner key such as an email
// address. Keys are case-folded so the same mailbox always maps to one namespace.
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(s))))
	return hex.EncodeToString(sum[:])
}
