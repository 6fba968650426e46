package util

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// ownerKeyDomain separates owner digests from any other SHA-256 use of the same input.
const ownerKeyDomain = "filevault.owner.v1"

// HashKey returns the 64-character hex digest logged in place of an owner subject.
// Equal subjects always map to the same key so log lines can still be correlated.
func HashKey(subject string) string {
	h := sha256.New()
	io.WriteString(h, ownerKeyDomain)
	h.Write([]byte{0})
	io.WriteString(h, subject)
	return hex.EncodeToString(h.Sum(nil))
}
