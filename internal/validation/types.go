package validation

// AddressPayload is the consignee address block shared by several requests.
type AddressPayload struct {
	Name    string `json:"name" validate:"required"`
	Line    string `json:"line" validate:"required"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`
	Phone   string `json:"phone" validate:"required,min=10,max=13"`
}

// PackagePayload is the physical package profile.
type PackagePayload struct {
	WeightGrams int `json:"weight_grams" validate:"required,min=1"`
	LengthCm    int `json:"length_cm,omitempty" validate:"omitempty,min=1"`
	WidthCm     int `json:"width_cm,omitempty" validate:"omitempty,min=1"`
	HeightCm    int `json:"height_cm,omitempty" validate:"omitempty,min=1"`
	ItemCount   int `json:"item_count" validate:"required,min=1"`
}

// ManifestRequest is the payload for POST /shipments.
type ManifestRequest struct {
	OrderID       string         `json:"order_id" validate:"required"`
	Consignee     AddressPayload `json:"consignee" validate:"required"`
	Package       PackagePayload `json:"package" validate:"required"`
	PaymentMode   string         `json:"payment_mode" validate:"required,oneof=Prepaid COD"`
	CODAmount     float64        `json:"cod_amount,omitempty"`
	DeclaredValue float64        `json:"declared_value" validate:"required,gt=0"`
	EwaybillNo    string         `json:"ewaybill_no,omitempty"`
	ProductsDesc  string         `json:"products_desc,omitempty"`
}

// UpdateRequest is the payload for PATCH /shipments/:orderID.
type UpdateRequest struct {
	Name        string `json:"name,omitempty"`
	AddressLine string `json:"address_line,omitempty"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,min=10,max=13"`
	WeightGrams int    `json:"weight_grams,omitempty" validate:"omitempty,min=1"`
	LengthCm    int    `json:"length_cm,omitempty" validate:"omitempty,min=1"`
	WidthCm     int    `json:"width_cm,omitempty" validate:"omitempty,min=1"`
	HeightCm    int    `json:"height_cm,omitempty" validate:"omitempty,min=1"`
	EwaybillNo  string `json:"ewaybill_no,omitempty"`
}

// ConvertPaymentRequest switches the payment mode.
type ConvertPaymentRequest struct {
	PaymentMode string  `json:"payment_mode" validate:"required,oneof=Prepaid COD"`
	CODAmount   float64 `json:"cod_amount,omitempty"`
}

// NDRActionRequest acts on a non-delivery report.
type NDRActionRequest struct {
	Action       string         `json:"action" validate:"required,oneof=RE-ATTEMPT DEFER_DLV EDIT_DETAILS"`
	DeferredDate string         `json:"deferred_date,omitempty"` // YYYY-MM-DD, DEFER_DLV only
	Update       *UpdateRequest `json:"update,omitempty"`
}

// ReturnRequest creates a reverse pickup for a delivered shipment.
type ReturnRequest struct {
	Reason string `json:"reason,omitempty"`
}

// PickupRequest schedules a warehouse pickup.
type PickupRequest struct {
	Location      string `json:"location,omitempty"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string `json:"time,omitempty"`
	ExpectedCount int    `json:"expected_package_count" validate:"required,min=1"`
}

// TrackRequest polls carrier-side status for a batch of waybills.
type TrackRequest struct {
	AWBs []string `json:"awbs" validate:"required,min=1,max=50,dive,required"`
}
