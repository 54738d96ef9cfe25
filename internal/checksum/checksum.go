// Package checksum fingerprints document contents.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// revisionLen is the number of hex digits in a Revision.
const revisionLen = 12

// Sum returns the hex-encoded SHA-256 digest of data. The index stores it to
// skip unchanged documents during sync.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Revision is a short prefix of Sum, used to tag document versions in board
// change events.
func Revision(data []byte) string {
	return Sum(data)[:revisionLen]
}
