package track

import (
	"crypto/sha256"
	"encoding/hex"
)

// VisitorID derives the stable pseudonymous fingerprint for a visitor
// from connection metadata. The same (ip, userAgent) pair always yields
// the same id. The server recomputes this for identify calls instead of
// trusting a client-supplied id.
func VisitorID(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "-" + userAgent))
	return hex.EncodeToString(sum[:])
}
