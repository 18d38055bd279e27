package linkid

import (
	"errors"
	"strings"
	"testing"

	"github.com/linkgenetic/linkid-resolver/internal/domain"
)

func TestValidateAcceptsFullCharset(t *testing.T) {
	id := "abc123._~-" + strings.Repeat("x", 22)
	got, err := Validate(id)
	if err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	if got != id {
		t.Fatalf("expected %q got %q", id, got)
	}
}

func TestValidateNormalizes(t *testing.T) {
	raw := "  " + strings.Repeat("A", 32) + "\t"
	got, err := Validate(raw)
	if err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	if got != strings.Repeat("a", 32) {
		t.Fatalf("expected lowercase trimmed id, got %q", got)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too short", strings.Repeat("a", 31)},
		{"too long", strings.Repeat("a", 65)},
		{"bad char slash", strings.Repeat("a", 31) + "/"},
		{"bad char space", strings.Repeat("a", 16) + " " + strings.Repeat("a", 16)},
	}
	for _, tc := range cases {
		if _, err := Validate(tc.id); err == nil {
			t.Fatalf("%s: expected error for %q", tc.name, tc.id)
		} else if !errors.Is(err, domain.ErrInvalidFormat) {
			t.Fatalf("%s: expected InvalidFormatError, got %v", tc.name, err)
		}
	}
}

func TestValidateBoundaryLengths(t *testing.T) {
	for _, n := range []int{32, 64} {
		if _, err := Validate(strings.Repeat("a", n)); err != nil {
			t.Fatalf("length %d should be valid: %v", n, err)
		}
	}
}

func TestIsUUID(t *testing.T) {
	if !IsUUID(strings.Repeat("a1", 16)) {
		t.Fatalf("32 hex chars should be uuid-shaped")
	}
	if IsUUID(strings.Repeat("g", 32)) {
		t.Fatalf("non-hex should not be uuid-shaped")
	}
	if IsUUID(strings.Repeat("a", 64)) {
		t.Fatalf("64 chars should not be uuid-shaped")
	}
}

func TestIsHash(t *testing.T) {
	if !IsHash(strings.Repeat("ab", 16)) {
		t.Fatalf("32 hex chars should be hash-shaped")
	}
	if !IsHash(strings.Repeat("ab", 32)) {
		t.Fatalf("64 hex chars should be hash-shaped")
	}
	if IsHash(strings.Repeat("ab", 24)) {
		t.Fatalf("48 chars should not be hash-shaped")
	}
}

func TestNew(t *testing.T) {
	id := New()
	if len(id) != 32 {
		t.Fatalf("expected 32 chars, got %d", len(id))
	}
	if !IsValid(id) {
		t.Fatalf("generated id should be valid: %q", id)
	}
	if id != strings.ToLower(id) {
		t.Fatalf("generated id should be lowercase")
	}
	if id == New() {
		t.Fatalf("two generated ids should differ")
	}
}

func TestNewFromContent(t *testing.T) {
	id := NewFromContent("https://example.org/resource")
	if len(id) != 32 || !IsHash(id) {
		t.Fatalf("expected 32 hex chars, got %q", id)
	}
}
