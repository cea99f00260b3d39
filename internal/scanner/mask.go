package scanner

import (
	"crypto/sha256"
	"encoding/hex"
)

// MaskMarker replaces the hidden part of a matched secret.
const MaskMarker = "***"

// Mask redacts a matched secret. Matches longer than ten characters keep
// their first six and last four; shorter ones keep only the first three.
func Mask(s string) string {
	r := []rune(s)
	if len(r) > 10 {
		return string(r[:6]) + MaskMarker + string(r[len(r)-4:])
	}
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r) + MaskMarker
}

// Digest returns the hex SHA-256 of a matched secret. Two matches that
// mask the same way still get different digests.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
