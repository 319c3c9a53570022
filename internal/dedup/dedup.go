// Package dedup suppresses repeat deliveries of the same logical alert
// within a short window.
//
// Messages are fingerprinted after removing time-of-day text, so two
// deliveries of one alert seconds apart collide while any other difference
// (ticker, price, category) does not.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"time"
)

// DefaultWindow is how long a fingerprint suppresses repeats.
const DefaultWindow = 60 * time.Second

// clockPattern matches H:MM, HH:MM and HH:MM:SS (with optional fraction and
// zone suffix). The guard group keeps the preceding non-digit, so times glued
// to letters, as in ISO stamps like 2026-10-15T16:30:45Z, still match.
var clockPattern = regexp.MustCompile(`(^|\D)\d{1,2}:\d{2}(?::\d{2}(?:[.,]\d+)?)?(?:Z|[+-]\d{2}:?\d{2})?`)

// Store records fingerprints. CheckAndInsert must be atomic: it reports
// whether fp was already present inside the window and, if not, records it
// at now.
type Store interface {
	CheckAndInsert(ctx context.Context, fp string, now time.Time) (dup bool, err error)
}

// Fingerprint hashes message with every time-of-day substring removed.
func Fingerprint(message string) string {
	stripped := clockPattern.ReplaceAllString(message, "${1}")
	sum := sha256.Sum256([]byte(stripped))
	return hex.EncodeToString(sum[:])
}
