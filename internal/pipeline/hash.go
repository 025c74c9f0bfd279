package pipeline

import (
	"crypto/md5"
	"encoding/hex"
)

// ContentHash computes the deduplication key for an uploaded blob: an MD5
// hex digest over the full byte content. This is a dedup key, not a
// security boundary.
func ContentHash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
