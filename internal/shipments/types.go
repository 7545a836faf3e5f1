package shipments

import (
	"time"

	"github.com/openfulfil/go-courier-sync/internal/status"
)

// Payment modes supported by the carrier.
const (
	PaymentPrepaid = "Prepaid"
	PaymentCOD     = "COD"
)

// NDR actions accepted by the carrier.
const (
	NDRReattempt   = "RE-ATTEMPT"
	NDRDefer       = "DEFER_DLV"
	NDREditDetails = "EDIT_DETAILS"
)

// ScanEntry is one stop in a shipment's scan history.
type ScanEntry struct {
	Status       string    `dynamodbav:"status" json:"status"`
	StatusType   string    `dynamodbav:"status_type,omitempty" json:"status_type,omitempty"`
	Location     string    `dynamodbav:"location,omitempty" json:"location,omitempty"`
	Timestamp    time.Time `dynamodbav:"timestamp" json:"timestamp"`
	Instructions string    `dynamodbav:"instructions,omitempty" json:"instructions,omitempty"`
}

// PackageProfile holds the physical profile sent to the carrier.
type PackageProfile struct {
	WeightGrams int `dynamodbav:"weight_grams" json:"weight_grams"`
	LengthCm    int `dynamodbav:"length_cm,omitempty" json:"length_cm,omitempty"`
	WidthCm     int `dynamodbav:"width_cm,omitempty" json:"width_cm,omitempty"`
	HeightCm    int `dynamodbav:"height_cm,omitempty" json:"height_cm,omitempty"`
	ItemCount   int `dynamodbav:"item_count" json:"item_count"`
}

// Address is the consignee address block.
type Address struct {
	Name    string `dynamodbav:"name" json:"name"`
	Line    string `dynamodbav:"line" json:"line"`
	City    string `dynamodbav:"city,omitempty" json:"city,omitempty"`
	State   string `dynamodbav:"state,omitempty" json:"state,omitempty"`
	Country string `dynamodbav:"country,omitempty" json:"country,omitempty"`
	Pincode string `dynamodbav:"pincode" json:"pincode"`
	Phone   string `dynamodbav:"phone" json:"phone"`
}

// Shipment is the local record kept in sync with carrier-side reality.
// A shipment has at most one active AWB; cancelled AWBs are permanently
// retired and listed in RetiredAWBs.
type Shipment struct {
	OrderID  string `dynamodbav:"order_id"` // PK
	OrderRef string `dynamodbav:"order_ref"`
	AWB      string `dynamodbav:"awb,omitempty"` // GSI PK once assigned

	State      status.State `dynamodbav:"state"`
	StatusType string       `dynamodbav:"status_type,omitempty"`
	StatusText string       `dynamodbav:"status_text,omitempty"`
	NSLCode    string       `dynamodbav:"nsl_code,omitempty"`

	LastLocation string     `dynamodbav:"last_location,omitempty"`
	LastStatusAt *time.Time `dynamodbav:"last_status_at,omitempty"`
	ExpectedAt   *time.Time `dynamodbav:"expected_at,omitempty"`

	NDRActive bool   `dynamodbav:"ndr_active"`
	NDRReason string `dynamodbav:"ndr_reason,omitempty"`

	ScanHistory []ScanEntry `dynamodbav:"scan_history,omitempty"`

	Consignee Address        `dynamodbav:"consignee"`
	Package   PackageProfile `dynamodbav:"package"`

	PaymentMode   string  `dynamodbav:"payment_mode"`
	CODAmount     float64 `dynamodbav:"cod_amount,omitempty"`
	DeclaredValue float64 `dynamodbav:"declared_value,omitempty"`
	EwaybillNo    string  `dynamodbav:"ewaybill_no,omitempty"`

	ReturnAWB string `dynamodbav:"return_awb,omitempty"`

	// ManifestAttempts drives the re-manifest reference scheme: it is
	// incremented on every cancellation so the next order reference differs
	// from all prior ones for this order.
	ManifestAttempts int      `dynamodbav:"manifest_attempts"`
	RetiredAWBs      []string `dynamodbav:"retired_awbs,omitempty"`

	CreatedAt time.Time `dynamodbav:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

// Classify runs the status classifier over the shipment's stored raw fields.
func (s *Shipment) Classify(ewaybillThreshold float64) status.Classification {
	return status.Classify(s.StatusType, s.StatusText, status.Hints{
		NDRActive:         s.NDRActive,
		DeclaredValue:     s.DeclaredValue,
		EwaybillThreshold: ewaybillThreshold,
	})
}
