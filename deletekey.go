package bbs

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// deleteKeySalt is mixed into every digest to blunt precomputed-table
// attacks. Application-wide build-time constant, not per post.
const deleteKeySalt = "legacy-homepage-salt-2024"

// HashDeleteKey derives the stored digest for a delete key: hex-encoded
// SHA-256 over the salted key. The raw key itself is never persisted.
func HashDeleteKey(key string) string {
	sum := sha256.Sum256([]byte(deleteKeySalt + ":" + key))
	return hex.EncodeToString(sum[:])
}

// VerifyDeleteKey reports whether candidate hashes to storedDigest. The
// comparison is constant-time so response timing reveals nothing about how
// close a guess came.
func VerifyDeleteKey(candidate, storedDigest string) bool {
	digest := HashDeleteKey(candidate)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedDigest)) == 1
}
