package spec

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// syncHashLen is the number of hex characters kept from the SHA-256 digest.
const syncHashLen = 12

// SyncHash returns the first 12 lowercase hex characters of the SHA-256
// digest of the markdown body. This is the change-detection hash stored in
// front-matter as sync_hash.
func SyncHash(markdown string) string {
	sum := sha256.Sum256([]byte(markdown))
	return hex.EncodeToString(sum[:])[:syncHashLen]
}

// Fingerprint returns a fast non-cryptographic hash of raw file content.
// Scanner records it at read time; writeback compares it against the current
// on-disk content to warn about edits made by another process mid-run.
func Fingerprint(content []byte) uint64 {
	return xxhash.Sum64(content)
}
