package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openfulfil/go-courier-sync/internal/carrier"
)

// ErrInvalidSignature rejects a webhook whose HMAC does not match.
var ErrInvalidSignature = errors.New("webhook signature mismatch")

// ErrUnparsablePayload rejects a payload with no recognizable waybill.
var ErrUnparsablePayload = errors.New("webhook payload missing waybill")

// Event is the normalized carrier status push.
type Event struct {
	AWB          string
	StatusType   string
	Status       string
	NSLCode      string
	StatusAt     time.Time
	Location     string
	Instructions string
}

// statusBlock matches the nested Status object of the current payload format.
type statusBlock struct {
	Status         string `json:"Status"`
	StatusType     string `json:"StatusType"`
	StatusDateTime string `json:"StatusDateTime"`
	StatusLocation string `json:"StatusLocation"`
	Instructions   string `json:"Instructions"`
}

// rawPayload accepts both the current nested shape and the historical flat
// field names; the carrier has used several over the years.
type rawPayload struct {
	Shipment *struct {
		AWB     string      `json:"AWB"`
		Waybill string      `json:"Waybill"`
		Status  statusBlock `json:"Status"`
		NSLCode string      `json:"NSLCode"`
	} `json:"Shipment"`

	AWB          string `json:"awb"`
	Waybill      string `json:"waybill"`
	Status       string `json:"status"`
	StatusType   string `json:"status_type"`
	NSLCode      string `json:"nsl_code"`
	StatusCode   string `json:"status_code"`
	StatusTime   string `json:"status_datetime"`
	Location     string `json:"location"`
	Instructions string `json:"instructions"`
}

// ParseEvent normalizes a raw webhook body into an Event.
func ParseEvent(body []byte, now time.Time) (*Event, error) {
	var raw rawPayload
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}

	ev := &Event{}

	if raw.Shipment != nil {
		ev.AWB = firstNonEmpty(raw.Shipment.AWB, raw.Shipment.Waybill)
		ev.Status = raw.Shipment.Status.Status
		ev.StatusType = raw.Shipment.Status.StatusType
		ev.Location = raw.Shipment.Status.StatusLocation
		ev.Instructions = raw.Shipment.Status.Instructions
		ev.NSLCode = raw.Shipment.NSLCode
		ev.StatusAt = parseStatusTime(raw.Shipment.Status.StatusDateTime, now)
	} else {
		ev.AWB = firstNonEmpty(raw.AWB, raw.Waybill)
		ev.Status = raw.Status
		ev.StatusType = raw.StatusType
		ev.Location = raw.Location
		ev.Instructions = raw.Instructions
		ev.NSLCode = firstNonEmpty(raw.NSLCode, raw.StatusCode)
		ev.StatusAt = parseStatusTime(raw.StatusTime, now)
	}

	ev.AWB = strings.TrimSpace(ev.AWB)
	if ev.AWB == "" {
		return nil, ErrUnparsablePayload
	}
	return ev, nil
}

// statusTimeFormats are the datetime layouts the carrier has been observed
// sending.
var statusTimeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02-01-2006 15:04:05",
}

// parseStatusTime falls back to the receipt time when the carrier sends an
// unparsable or missing datetime; such events cannot be deduplicated but
// must still apply.
func parseStatusTime(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return now
	}
	for _, layout := range statusTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return now
}

// EventFromTracking converts a pull-based tracking snapshot into the same
// event shape the push pipeline applies, so polled and pushed statuses go
// through one code path.
func EventFromTracking(ts carrier.TrackedShipment, now time.Time) *Event {
	return &Event{
		AWB:          strings.TrimSpace(ts.AWB),
		StatusType:   ts.Status.StatusType,
		Status:       ts.Status.Status,
		NSLCode:      ts.NSLCode,
		StatusAt:     parseStatusTime(ts.Status.StatusDateTime, now),
		Location:     ts.Status.StatusLocation,
		Instructions: ts.Status.Instructions,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
