package shipments

import (
	"fmt"
	"strings"
	"time"
)

const maxReferenceLen = 40

// ReferenceFor computes the order reference for the given manifest attempt.
// Attempt 0 (no prior cancellation) is the sanitized order id itself; every
// later attempt appends the attempt counter and a generation timestamp so the
// carrier treats it as a brand-new shipment. Cancelled waybills can never be
// revived, so references must be monotonically distinct per order for the
// order's whole lifetime.
func ReferenceFor(orderID string, attempt int, now time.Time) string {
	base := sanitizeReference(orderID)
	if attempt <= 0 {
		return base
	}

	suffix := fmt.Sprintf("-R%d-%s", attempt, now.UTC().Format("060102150405"))
	if len(base)+len(suffix) > maxReferenceLen {
		base = base[:maxReferenceLen-len(suffix)]
	}
	return base + suffix
}

// sanitizeReference maps an order id onto the carrier-safe charset
// (uppercase alphanumerics and dashes) and caps the length.
func sanitizeReference(orderID string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(orderID) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == '_', r == ' ', r == '/':
			b.WriteRune('-')
		}
	}

	ref := b.String()
	if ref == "" {
		ref = "ORDER"
	}
	if len(ref) > maxReferenceLen {
		ref = ref[:maxReferenceLen]
	}
	return ref
}
