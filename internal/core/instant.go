package core

import (
	"crypto/rand"
	"encoding/binary"
	"regexp"
	"strconv"
	"time"
)

// InstantLayout is the only accepted wire format for date and timestamp
// fields: fixed-width UTC instant with exactly three fractional digits
// and a trailing Z. Other ISO variants (no milliseconds, different
// precision, timezone offsets) are rejected.
const InstantLayout = "2006-01-02T15:04:05.000Z"

var instantRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)

// ValidInstant reports whether s matches the strict instant pattern and
// denotes a real point in time.
func ValidInstant(s string) bool {
	if !instantRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(InstantLayout, s)
	return err == nil
}

// ParseInstant parses a strict instant string.
func ParseInstant(s string) (time.Time, error) {
	return time.Parse(InstantLayout, s)
}

// FormatInstant renders t in the strict instant format.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}

// Now returns the current time in the strict instant format.
func Now() string {
	return FormatInstant(time.Now())
}

// NewID generates an opaque transaction ID: base36 creation time plus a
// random base36 suffix, matching the token shape of existing data.
func NewID() string {
	var buf [8]byte
	suffix := ""
	if _, err := rand.Read(buf[:]); err == nil {
		suffix = strconv.FormatUint(binary.BigEndian.Uint64(buf[:])>>16, 36)
	} else {
		suffix = strconv.FormatInt(time.Now().UnixNano()%1e9, 36)
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + suffix
}
