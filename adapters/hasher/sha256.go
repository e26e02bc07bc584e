package hasher

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/satriahrh/shg-assistant/domain"
)

// fingerprintLen keeps log lines short; collisions only blur correlation.
const fingerprintLen = 16

// New returns a domain.Hasher backed by SHA‑256.
func New() domain.Hasher { return sha256Hasher{} }

type sha256Hasher struct{}

func (h sha256Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
