package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// GenerateKey builds a deterministic key using all provided parts. String parts are
// compared case-insensitively so "A@B.com" and "a@b.com" collide.
func GenerateKey(parts ...any) string {
	h := sha256.New()
	for _, part := range parts {
		if s, ok := part.(string); ok {
			part = strings.ToLower(strings.TrimSpace(s))
		}
		fmt.Fprintf(h, "%v:", part)
	}

	return hex.EncodeToString(h.Sum(nil))
}
