// Package linkid validates, normalizes, and generates LinkID
// identifier strings.
package linkid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/linkgenetic/linkid-resolver/internal/domain"
)

const (
	// MinLength and MaxLength bound a valid identifier.
	MinLength = 32
	MaxLength = 64
)

// isAllowed reports whether c belongs to the identifier charset
// [a-z0-9._~-] (identifiers are compared after lowercasing).
func isAllowed(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '.' || c == '_' || c == '~' || c == '-':
		return true
	}
	return false
}

// Normalize trims surrounding whitespace and lowercases.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// IsValid reports whether raw normalizes to a well-formed identifier.
func IsValid(raw string) bool {
	n := Normalize(raw)
	if len(n) < MinLength || len(n) > MaxLength {
		return false
	}
	for i := 0; i < len(n); i++ {
		if !isAllowed(n[i]) {
			return false
		}
	}
	return true
}

// Validate normalizes raw and returns it, or an InvalidFormatError
// describing what is wrong.
func Validate(raw string) (string, error) {
	n := Normalize(raw)
	if n == "" {
		return "", domain.InvalidFormatError{ID: raw, Reason: "empty identifier"}
	}
	if len(n) < MinLength || len(n) > MaxLength {
		return "", domain.InvalidFormatError{
			ID:     raw,
			Reason: "length must be between " + strconv.Itoa(MinLength) + " and " + strconv.Itoa(MaxLength),
		}
	}
	for i := 0; i < len(n); i++ {
		if !isAllowed(n[i]) {
			return "", domain.InvalidFormatError{ID: raw, Reason: "disallowed character " + strconv.QuoteRune(rune(n[i]))}
		}
	}
	return n, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// IsUUID reports whether the identifier is shaped like a dashless
// UUID (32 hex characters). Diagnostic only, never used for control
// flow.
func IsUUID(raw string) bool {
	if !IsValid(raw) {
		return false
	}
	n := Normalize(raw)
	return len(n) == 32 && isHex(n)
}

// IsHash reports whether the identifier is shaped like a hex digest
// (32 or 64 hex characters). Diagnostic only.
func IsHash(raw string) bool {
	if !IsValid(raw) {
		return false
	}
	n := Normalize(raw)
	return (len(n) == 32 || len(n) == 64) && isHex(n)
}

// New returns a fresh random identifier: 16 bytes of entropy rendered
// as 32 lowercase hex characters. Collision within the id space is
// treated as operationally impossible.
func New() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// NewFromContent derives a 32-character identifier from a target URI
// and the current time.
func NewFromContent(uri string) string {
	sum := sha256.Sum256([]byte(uri + "|" + time.Now().UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])[:32]
}

// NewTimestamped returns an identifier prefixed with the current unix
// millisecond timestamp in hex, padded with random bytes.
func NewTimestamped() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	ts := strconv.FormatInt(time.Now().UnixMilli(), 16)
	return strings.ToLower(ts + hex.EncodeToString(buf))
}
