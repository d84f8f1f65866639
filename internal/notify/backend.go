// Package notify implements the notification dispatcher and its delivery
// backends.
package notify

import (
	"context"
	"strings"
	"time"
	"unicode"
)

const (
	// maxTitleLen and maxMessageLen cap sanitized notification text.
	maxTitleLen   = 100
	maxMessageLen = 500
)

// Backend is one concrete delivery mechanism in the dispatcher's fallback
// chain. Availability is probed once at startup; Attempt performs a single
// delivery with no internal retries.
type Backend interface {
	Name() string
	Available() bool
	Attempt(ctx context.Context, title, message string, d time.Duration) error
}

// sanitize strips non-printable characters and caps the length of
// notification text before it reaches any backend.
func sanitize(s string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(s))
	n := 0
	for _, r := range s {
		if n == maxLen {
			break
		}
		if unicode.IsPrint(r) {
			b.WriteRune(r)
			n++
		}
	}
	return strings.TrimSpace(b.String())
}
