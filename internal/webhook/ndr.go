package webhook

import (
	"strings"

	"github.com/openfulfil/go-courier-sync/internal/status"
)

// Default NDR heuristics. The carrier does not document these; the code
// prefixes and keywords below were collected from observed traffic and are
// overridable via configuration.
var (
	defaultNDRCodePrefixes = []string{"EOD-", "ST-1", "FMD-"}

	defaultNDRKeywords = []string{
		"not available",
		"consignee unavailable",
		"refused delivery",
		"refused to accept",
		"wrong address",
		"incomplete address",
		"address not found",
		"door locked",
		"premises closed",
		"cash not ready",
		"payment not ready",
		"delivery attempt",
	}
)

// NDRDetector flags probable non-delivery reports. This is a heuristic, not
// a carrier-guaranteed field.
type NDRDetector struct {
	codePrefixes []string
	keywords     []string
}

// NewNDRDetector builds a detector. Empty slices keep the built-in defaults.
func NewNDRDetector(codePrefixes, keywords []string) *NDRDetector {
	d := &NDRDetector{
		codePrefixes: codePrefixes,
		keywords:     keywords,
	}
	if len(d.codePrefixes) == 0 {
		d.codePrefixes = defaultNDRCodePrefixes
	}
	if len(d.keywords) == 0 {
		d.keywords = defaultNDRKeywords
	}
	return d
}

// Detect reports whether the event looks like a failed delivery attempt:
// the forward journey is active and either the NSL code carries a known
// failure prefix or the free-text instructions mention a failure keyword.
func (d *NDRDetector) Detect(ev *Event) (bool, string) {
	if !strings.EqualFold(strings.TrimSpace(ev.StatusType), status.TypeUndelivered) {
		return false, ""
	}

	code := strings.ToUpper(strings.TrimSpace(ev.NSLCode))
	for _, prefix := range d.codePrefixes {
		if code != "" && strings.HasPrefix(code, strings.ToUpper(prefix)) {
			return true, "carrier code " + code
		}
	}

	instructions := strings.ToLower(ev.Instructions)
	for _, kw := range d.keywords {
		if instructions != "" && strings.Contains(instructions, kw) {
			return true, strings.TrimSpace(ev.Instructions)
		}
	}

	return false, ""
}
