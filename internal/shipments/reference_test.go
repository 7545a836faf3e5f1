package shipments

import (
	"strings"
	"testing"
	"time"
)

func TestReferenceFor_FirstAttempt(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if got := ReferenceFor("ORD-42", 0, now); got != "ORD-42" {
		t.Fatalf("ReferenceFor = %q, want sanitized order id", got)
	}
}

func TestReferenceFor_RemanifestsAreDistinct(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	refs := map[string]bool{}
	for attempt := 0; attempt <= 3; attempt++ {
		ref := ReferenceFor("ORD-42", attempt, now.Add(time.Duration(attempt)*time.Minute))
		if refs[ref] {
			t.Fatalf("attempt %d produced repeated reference %q", attempt, ref)
		}
		refs[ref] = true
	}
}

func TestReferenceFor_SameAttemptDifferentTimeDiffers(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := ReferenceFor("ORD-42", 1, base)
	b := ReferenceFor("ORD-42", 1, base.Add(time.Second))
	if a == b {
		t.Fatalf("references with different generation times must differ, both %q", a)
	}
}

func TestReferenceFor_LengthCap(t *testing.T) {
	long := strings.Repeat("X", 80)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	ref := ReferenceFor(long, 12, now)
	if len(ref) > maxReferenceLen {
		t.Fatalf("reference length %d exceeds cap %d", len(ref), maxReferenceLen)
	}
	if !strings.Contains(ref, "-R12-") {
		t.Fatalf("reference %q lost its attempt marker", ref)
	}
}

func TestSanitizeReference(t *testing.T) {
	cases := []struct{ in, want string }{
		{"ord_42", "ORD-42"},
		{"shop/1 a", "SHOP-1-A"},
		{"##!!", "ORDER"},
		{"plain-123", "PLAIN-123"},
	}
	for _, tc := range cases {
		if got := sanitizeReference(tc.in); got != tc.want {
			t.Errorf("sanitizeReference(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
