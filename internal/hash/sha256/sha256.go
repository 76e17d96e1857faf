// Package sha256 provides SHA-256 hashing utilities.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hasher implements concert.Hasher using SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Digest joins parts with "|" and returns the first n hex characters of their
// SHA-256. n <= 0 or n > 64 returns the full digest.
func (h *Hasher) Digest(n int, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	out := hex.EncodeToString(sum[:])
	if n <= 0 || n > len(out) {
		return out
	}
	return out[:n]
}
