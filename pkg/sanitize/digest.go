package sanitize

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the first n characters of the lowercase hex SHA-256
// of the UTF-8 encoding of value. Pure function. Truncation trades
// token readability against collision risk; callers must treat the
// result as practically unique, not globally unique.
func Digest(value string, n int) string {
	sum := sha256.Sum256([]byte(value))
	full := hex.EncodeToString(sum[:])
	if n <= 0 || n > len(full) {
		return full
	}
	return full[:n]
}
