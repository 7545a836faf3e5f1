package carrier

// Endpoint keys used by the rate governor. One key per quota bucket.
const (
	EndpointManifest       = "manifest"
	EndpointEdit           = "edit"
	EndpointTrack          = "track"
	EndpointNDR            = "ndr"
	EndpointPickup         = "pickup"
	EndpointServiceability = "serviceability"
	EndpointWaybill        = "waybill"
)

// ManifestShipment is one shipment entry in a manifest request. Monetary and
// weight fields are decimal strings, per the carrier wire format.
type ManifestShipment struct {
	OrderRef      string `json:"order"`
	Name          string `json:"name"`
	Address       string `json:"add"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	Pincode       string `json:"pin"`
	Phone         string `json:"phone"`
	PaymentMode   string `json:"payment_mode"` // "Prepaid" | "COD"
	CODAmount     string `json:"cod_amount,omitempty"`
	TotalAmount   string `json:"total_amount,omitempty"`
	Weight        string `json:"weight"`
	Length        string `json:"shipment_length,omitempty"`
	Width         string `json:"shipment_width,omitempty"`
	Height        string `json:"shipment_height,omitempty"`
	Quantity      int    `json:"quantity"`
	SellerName    string `json:"seller_name,omitempty"`
	SellerAddress string `json:"seller_add,omitempty"`
	EwaybillNo    string `json:"ewbn,omitempty"`
	ProductsDesc  string `json:"products_desc,omitempty"`
}

// PickupLocation identifies the registered warehouse shipments leave from.
type PickupLocation struct {
	Name string `json:"name"`
}

// ManifestRequest registers one or more shipments with the carrier.
type ManifestRequest struct {
	Shipments      []ManifestShipment `json:"shipments"`
	PickupLocation PickupLocation     `json:"pickup_location"`
}

// ManifestPackage is the per-shipment outcome in a manifest response.
type ManifestPackage struct {
	Waybill string   `json:"waybill"`
	RefNum  string   `json:"refnum"`
	Status  string   `json:"status"`
	Remarks []string `json:"remarks,omitempty"`
}

// ManifestResponse is the carrier's answer to a manifest call.
type ManifestResponse struct {
	Success  bool              `json:"success"`
	Packages []ManifestPackage `json:"packages"`
	RMK      string            `json:"rmk,omitempty"`
}

// EditRequest updates mutable shipment fields on the carrier side. A zero
// field is left untouched.
type EditRequest struct {
	Waybill      string `json:"waybill"`
	Name         string `json:"name,omitempty"`
	Address      string `json:"add,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Weight       string `json:"gm,omitempty"`
	Length       string `json:"shipment_length,omitempty"`
	Width        string `json:"shipment_width,omitempty"`
	Height       string `json:"shipment_height,omitempty"`
	PaymentMode  string `json:"pt,omitempty"` // payment conversion: "Prepaid" | "COD"
	CODAmount    string `json:"cod,omitempty"`
	EwaybillNo   string `json:"ewbn,omitempty"`
	Cancellation string `json:"cancellation,omitempty"` // "true" cancels the waybill
}

// EditResponse acknowledges an edit or cancel call.
type EditResponse struct {
	Status  bool   `json:"status"`
	Waybill string `json:"waybill"`
	Remark  string `json:"remark,omitempty"`
}

// ScanStatus is the carrier's current-status block for one shipment.
type ScanStatus struct {
	Status         string `json:"Status"`
	StatusType     string `json:"StatusType"`
	StatusDateTime string `json:"StatusDateTime"`
	StatusLocation string `json:"StatusLocation"`
	Instructions   string `json:"Instructions"`
}

// ScanDetail is one entry in a shipment's scan history.
type ScanDetail struct {
	ScanDateTime    string `json:"ScanDateTime"`
	ScanType        string `json:"ScanType"`
	Scan            string `json:"Scan"`
	ScannedLocation string `json:"ScannedLocation"`
	Instructions    string `json:"Instructions"`
	StatusCode      string `json:"StatusCode"`
}

// TrackedShipment is the carrier's view of one shipment in a track response.
type TrackedShipment struct {
	AWB         string     `json:"AWB"`
	ReferenceNo string     `json:"ReferenceNo"`
	Status      ScanStatus `json:"Status"`
	NSLCode     string     `json:"NSLCode"`
	Scans       []struct {
		ScanDetail ScanDetail `json:"ScanDetail"`
	} `json:"Scans"`
	ExpectedDeliveryDate string `json:"ExpectedDeliveryDate"`
	PromisedDeliveryDate string `json:"PromisedDeliveryDate"`
	PickUpDate           string `json:"PickUpDate"`
}

// TrackResponse wraps tracked shipments for a batch of up to 50 waybills.
type TrackResponse struct {
	ShipmentData []struct {
		Shipment TrackedShipment `json:"Shipment"`
	} `json:"ShipmentData"`
}

// NDRRequest asks the carrier to act on a non-delivery report.
type NDRRequest struct {
	Waybill      string `json:"waybill"`
	Action       string `json:"act"` // RE-ATTEMPT | DEFER_DLV | EDIT_DETAILS
	DeferredDate string `json:"deferred_date,omitempty"`
	Name         string `json:"name,omitempty"`
	Address      string `json:"add,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// NDRResponse acknowledges an NDR action request.
type NDRResponse struct {
	Status    bool   `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	Remark    string `json:"remark,omitempty"`
}

// PickupRequest schedules a pickup at a registered location. It batches all
// shipments manifested there; it is not tied to a single waybill.
type PickupRequest struct {
	PickupLocation string `json:"pickup_location"`
	PickupDate     string `json:"pickup_date"` // YYYY-MM-DD
	PickupTime     string `json:"pickup_time"` // HH:MM:SS
	ExpectedCount  int    `json:"expected_package_count"`
}

// PickupResponse carries the carrier-assigned pickup identifier.
type PickupResponse struct {
	PickupID       int    `json:"pickup_id"`
	IncomingCenter string `json:"incoming_center_name,omitempty"`
}

// ReturnShipment describes a reverse pickup (RVP) to create after delivery.
type ReturnShipment struct {
	OrderRef     string `json:"order"`
	Name         string `json:"name"`
	Address      string `json:"add"`
	Pincode      string `json:"pin"`
	Phone        string `json:"phone"`
	Weight       string `json:"weight"`
	Quantity     int    `json:"quantity"`
	ReturnReason string `json:"return_reason,omitempty"`
}

// ReturnRequest manifests a reverse pickup against a delivered shipment.
type ReturnRequest struct {
	Shipments      []ReturnShipment `json:"shipments"`
	PickupLocation PickupLocation   `json:"pickup_location"`
}

// ServiceablePincode is the carrier's serviceability record for one pincode.
type ServiceablePincode struct {
	Pin     string `json:"pin"`
	Prepaid string `json:"pre_paid"`
	COD     string `json:"cod"`
	Pickup  string `json:"pickup"`
	Repl    string `json:"repl"`
}

// ServiceabilityResponse answers a pincode serviceability query.
type ServiceabilityResponse struct {
	DeliveryCodes []struct {
		PostalCode ServiceablePincode `json:"postal_code"`
	} `json:"delivery_codes"`
}

// WaybillResponse carries prefetched waybill numbers.
type WaybillResponse struct {
	Waybills []string `json:"waybills"`
}
