package shipments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openfulfil/go-courier-sync/internal/aws"
	"github.com/openfulfil/go-courier-sync/internal/carrier"
	"github.com/openfulfil/go-courier-sync/internal/ratelimit"
	"github.com/openfulfil/go-courier-sync/internal/status"
)

// serviceabilityTTL keeps pincode lookups cached for hours; the endpoint has
// a strict per-5-minute quota.
const serviceabilityTTL = 6 * time.Hour

// deferWindowDays caps how far forward a delivery can be deferred.
const deferWindowDays = 6

// CarrierAPI is the slice of the carrier client the service calls. Tests
// substitute a fake.
type CarrierAPI interface {
	Manifest(ctx context.Context, req carrier.ManifestRequest) (*carrier.ManifestResponse, error)
	Edit(ctx context.Context, req carrier.EditRequest) (*carrier.EditResponse, error)
	Cancel(ctx context.Context, awb string) (*carrier.EditResponse, error)
	Track(ctx context.Context, awbs []string) (*carrier.TrackResponse, error)
	NDRAction(ctx context.Context, req carrier.NDRRequest) (*carrier.NDRResponse, error)
	CreatePickup(ctx context.Context, req carrier.PickupRequest) (*carrier.PickupResponse, error)
	CreateReturn(ctx context.Context, req carrier.ReturnRequest) (*carrier.ManifestResponse, error)
	Serviceability(ctx context.Context, pincode string) (*carrier.ServiceabilityResponse, error)
	FetchWaybills(ctx context.Context, count int) (*carrier.WaybillResponse, error)
}

// RecordStore is the persistence surface the service needs.
type RecordStore interface {
	Save(ctx context.Context, sh *Shipment) error
	Get(ctx context.Context, orderID string) (*Shipment, error)
	GetByAWB(ctx context.Context, awb string) (*Shipment, error)
	MarkCancelled(ctx context.Context, orderID, awb string) error
	SetReturnAWB(ctx context.Context, orderID, returnAWB string) error
	ListOpen(ctx context.Context) ([]Shipment, error)
}

// EventSink hands side effects to the order-management collaborator.
type EventSink interface {
	PublishOrderStatus(ctx context.Context, ev aws.OrderStatusEvent) error
	PublishNotification(ctx context.Context, ev aws.NotificationEvent) error
}

// Service implements the shipment operations. Every operation checks the
// status classifier before touching the network.
type Service struct {
	carrier  CarrierAPI
	store    RecordStore
	events   EventSink
	governor *ratelimit.Governor
	metrics  *aws.Metrics
	logger   *zap.Logger

	pickupLocation    string
	ewaybillThreshold float64

	// awbLocks serializes mutations per waybill; orderLocks guards the
	// attempt counter during manifest, where no waybill exists yet. The
	// webhook ingestor shares awbLocks so an apply and an operation on the
	// same waybill never interleave.
	awbLocks   *KeyedMutex
	orderLocks *KeyedMutex

	nowFunc func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Carrier           CarrierAPI
	Store             RecordStore
	Events            EventSink
	Governor          *ratelimit.Governor
	Metrics           *aws.Metrics
	Logger            *zap.Logger
	PickupLocation    string
	EwaybillThreshold float64
	// AWBLocks is shared with the webhook ingestor. Nil allocates a fresh
	// set.
	AWBLocks *KeyedMutex
}

// NewService wires a shipment operations service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		carrier:           cfg.Carrier,
		store:             cfg.Store,
		events:            cfg.Events,
		governor:          cfg.Governor,
		metrics:           cfg.Metrics,
		logger:            cfg.Logger,
		pickupLocation:    cfg.PickupLocation,
		ewaybillThreshold: cfg.EwaybillThreshold,
		awbLocks:          cfg.AWBLocks,
		orderLocks:        NewKeyedMutex(),
		nowFunc:           time.Now,
	}
	if s.awbLocks == nil {
		s.awbLocks = NewKeyedMutex()
	}
	return s
}

// ManifestInput is everything needed to register a shipment.
type ManifestInput struct {
	OrderID       string
	Consignee     Address
	Package       PackageProfile
	PaymentMode   string
	CODAmount     float64
	DeclaredValue float64
	EwaybillNo    string
	ProductsDesc  string
}

// Manifest registers the shipment with the carrier and stores the assigned
// waybill. A prior cancellation on the same order yields a fresh order
// reference; the carrier then issues a new waybill.
func (s *Service) Manifest(ctx context.Context, in ManifestInput) (*Shipment, error) {
	unlock := s.orderLocks.Lock(in.OrderID)
	defer unlock()

	if err := validatePincode(in.Consignee.Pincode); err != nil {
		return nil, err
	}
	if in.PaymentMode != PaymentPrepaid && in.PaymentMode != PaymentCOD {
		return nil, &ValidationError{Field: "payment_mode", Reason: "must be Prepaid or COD"}
	}
	if in.PaymentMode == PaymentCOD && in.CODAmount <= 0 {
		return nil, &ValidationError{Field: "cod_amount", Reason: "must be positive for COD"}
	}
	if s.ewaybillThreshold > 0 && in.DeclaredValue > s.ewaybillThreshold && in.EwaybillNo == "" {
		return nil, &ValidationError{
			Field:  "ewaybill_no",
			Reason: fmt.Sprintf("required above declared value %.2f", s.ewaybillThreshold),
		}
	}

	existing, err := s.store.Get(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	attempt := 0
	var retired []string
	if existing != nil {
		cls := existing.Classify(s.ewaybillThreshold)
		if existing.AWB != "" && cls.State != status.StateCancelled {
			return nil, &PreconditionFailedError{Action: "manifest", State: cls.State}
		}
		attempt = existing.ManifestAttempts
		retired = existing.RetiredAWBs
	}

	svc, err := s.CheckServiceability(ctx, in.Consignee.Pincode)
	if err != nil {
		return nil, err
	}
	if in.PaymentMode == PaymentCOD && !svc.COD {
		return nil, &ValidationError{Field: "pincode", Reason: "COD not serviceable at destination"}
	}
	if in.PaymentMode == PaymentPrepaid && !svc.Prepaid {
		return nil, &ValidationError{Field: "pincode", Reason: "not serviceable at destination"}
	}

	orderRef := ReferenceFor(in.OrderID, attempt, s.nowFunc())

	if err := s.governor.Allow(ctx, carrier.EndpointManifest); err != nil {
		return nil, err
	}

	resp, err := s.carrier.Manifest(ctx, carrier.ManifestRequest{
		Shipments:      []carrier.ManifestShipment{s.manifestShipment(in, orderRef)},
		PickupLocation: carrier.PickupLocation{Name: s.pickupLocation},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Packages) == 0 || resp.Packages[0].Waybill == "" {
		return nil, &carrier.InvalidResponseError{Reason: "manifest response missing waybill"}
	}

	now := s.nowFunc()
	sh := &Shipment{
		OrderID:          in.OrderID,
		OrderRef:         orderRef,
		AWB:              resp.Packages[0].Waybill,
		State:            status.StateManifested,
		StatusType:       status.TypeUndelivered,
		StatusText:       "Manifested",
		Consignee:        in.Consignee,
		Package:          in.Package,
		PaymentMode:      in.PaymentMode,
		CODAmount:        in.CODAmount,
		DeclaredValue:    in.DeclaredValue,
		EwaybillNo:       in.EwaybillNo,
		ManifestAttempts: attempt,
		RetiredAWBs:      retired,
		LastStatusAt:     &now,
	}
	if existing != nil {
		sh.CreatedAt = existing.CreatedAt
	}

	if err := s.store.Save(ctx, sh); err != nil {
		return nil, err
	}

	s.metrics.Count(ctx, "ShipmentManifested", 1, nil)
	s.publishStatus(ctx, sh)

	return sh, nil
}

func (s *Service) manifestShipment(in ManifestInput, orderRef string) carrier.ManifestShipment {
	ms := carrier.ManifestShipment{
		OrderRef:     orderRef,
		Name:         in.Consignee.Name,
		Address:      in.Consignee.Line,
		City:         in.Consignee.City,
		State:        in.Consignee.State,
		Country:      in.Consignee.Country,
		Pincode:      in.Consignee.Pincode,
		Phone:        in.Consignee.Phone,
		PaymentMode:  in.PaymentMode,
		TotalAmount:  decimal(in.DeclaredValue),
		Weight:       strconv.Itoa(in.Package.WeightGrams),
		Quantity:     in.Package.ItemCount,
		EwaybillNo:   in.EwaybillNo,
		ProductsDesc: in.ProductsDesc,
	}
	if in.PaymentMode == PaymentCOD {
		ms.CODAmount = decimal(in.CODAmount)
	}
	if in.Package.LengthCm > 0 {
		ms.Length = strconv.Itoa(in.Package.LengthCm)
		ms.Width = strconv.Itoa(in.Package.WidthCm)
		ms.Height = strconv.Itoa(in.Package.HeightCm)
	}
	return ms
}

// CancelResult tells the caller what the cancellation means financially.
type CancelResult struct {
	AWB        string
	FullRefund bool
	Note       string
}

// Cancel retires the active waybill. Before pickup this is a full refund;
// after pickup it triggers an RTO and no refund.
func (s *Service) Cancel(ctx context.Context, orderID string) (*CancelResult, error) {
	sh, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, ErrNotFound
	}
	// No active waybill means a previous cancel already retired it.
	if sh.AWB == "" {
		return nil, &PreconditionFailedError{Action: "cancel", State: sh.Classify(s.ewaybillThreshold).State}
	}

	unlock := s.awbLocks.Lock(sh.AWB)
	defer unlock()

	cls := sh.Classify(s.ewaybillThreshold)
	if !cls.CanCancel {
		return nil, &PreconditionFailedError{Action: "cancel", State: cls.State}
	}

	if _, err := s.carrier.Cancel(ctx, sh.AWB); err != nil {
		return nil, err
	}

	if err := s.store.MarkCancelled(ctx, orderID, sh.AWB); err != nil {
		return nil, err
	}

	res := &CancelResult{AWB: sh.AWB, FullRefund: cls.BeforePickup}
	if cls.BeforePickup {
		res.Note = "cancelled before pickup; eligible for full refund"
	} else {
		res.Note = "cancelled after pickup; return to origin triggered, no refund"
	}

	s.metrics.Count(ctx, "ShipmentCancelled", 1, map[string]string{
		"before_pickup": strconv.FormatBool(cls.BeforePickup),
	})
	if s.events != nil {
		_ = s.events.PublishOrderStatus(ctx, aws.OrderStatusEvent{
			OrderID:     orderID,
			AWB:         sh.AWB,
			OrderStatus: OrderStatusFor(status.StateCancelled),
			State:       string(status.StateCancelled),
		})
	}

	return res, nil
}

// UpdateInput carries the editable shipment fields. Zero values are left
// unchanged.
type UpdateInput struct {
	Name        string
	AddressLine string
	Phone       string
	WeightGrams int
	LengthCm    int
	WidthCm     int
	HeightCm    int
	EwaybillNo  string
}

// UpdateDetails edits consignee or package fields on the carrier side.
// Allowed while the forward journey has not been dispatched, or while a
// reverse pickup is still in the Scheduled sub-status.
func (s *Service) UpdateDetails(ctx context.Context, orderID string, in UpdateInput) (*Shipment, error) {
	sh, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if sh == nil || sh.AWB == "" {
		return nil, ErrNotFound
	}

	unlock := s.awbLocks.Lock(sh.AWB)
	defer unlock()

	if err := s.requireEditable(sh, "update"); err != nil {
		return nil, err
	}

	req := carrier.EditRequest{
		Waybill:    sh.AWB,
		Name:       in.Name,
		Address:    in.AddressLine,
		Phone:      in.Phone,
		EwaybillNo: in.EwaybillNo,
	}
	if in.WeightGrams > 0 {
		req.Weight = strconv.Itoa(in.WeightGrams)
	}
	if in.LengthCm > 0 {
		req.Length = strconv.Itoa(in.LengthCm)
		req.Width = strconv.Itoa(in.WidthCm)
		req.Height = strconv.Itoa(in.HeightCm)
	}

	if _, err := s.carrier.Edit(ctx, req); err != nil {
		return nil, err
	}

	applyUpdate(sh, in)
	if err := s.store.Save(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// ConvertPaymentMode switches COD<->Prepaid. Converting to the mode already
// set is rejected locally; COD requires a positive amount.
func (s *Service) ConvertPaymentMode(ctx context.Context, orderID, mode string, codAmount float64) (*Shipment, error) {
	if mode != PaymentPrepaid && mode != PaymentCOD {
		return nil, &ValidationError{Field: "payment_mode", Reason: "must be Prepaid or COD"}
	}

	sh, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if sh == nil || sh.AWB == "" {
		return nil, ErrNotFound
	}

	unlock := s.awbLocks.Lock(sh.AWB)
	defer unlock()

	if mode == sh.PaymentMode {
		return nil, &ValidationError{Field: "payment_mode", Reason: "already " + mode}
	}
	if mode == PaymentCOD && codAmount <= 0 {
		return nil, &ValidationError{Field: "cod_amount", Reason: "must be positive for COD"}
	}
	if err := s.requireEditable(sh, "convert_payment"); err != nil {
		return nil, err
	}

	req := carrier.EditRequest{Waybill: sh.AWB, PaymentMode: mode}
	if mode == PaymentCOD {
		req.CODAmount = decimal(codAmount)
	}
	if _, err := s.carrier.Edit(ctx, req); err != nil {
		return nil, err
	}

	sh.PaymentMode = mode
	if mode == PaymentCOD {
		sh.CODAmount = codAmount
	} else {
		sh.CODAmount = 0
	}
	if err := s.store.Save(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// NDRInput describes the requested non-delivery action.
type NDRInput struct {
	Action       string
	DeferredDate time.Time // DEFER_DLV only
	Update       UpdateInput
}

// NDRAction acts on an open non-delivery report. The NDR flag must be set on
// the record and the state non-terminal; DEFER_DLV additionally requires a
// date within the forward window.
func (s *Service) NDRAction(ctx context.Context, orderID string, in NDRInput) error {
	sh, err := s.store.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if sh == nil || sh.AWB == "" {
		return ErrNotFound
	}

	unlock := s.awbLocks.Lock(sh.AWB)
	defer unlock()

	cls := sh.Classify(s.ewaybillThreshold)

	req := carrier.NDRRequest{Waybill: sh.AWB, Action: in.Action}

	switch in.Action {
	case NDRReattempt:
		if !cls.CanReattempt {
			return &PreconditionFailedError{Action: "ndr_reattempt", State: cls.State}
		}
	case NDRDefer:
		if !cls.CanDefer {
			return &PreconditionFailedError{Action: "ndr_defer", State: cls.State}
		}
		if err := s.validateDeferDate(in.DeferredDate); err != nil {
			return err
		}
		req.DeferredDate = in.DeferredDate.Format("2006-01-02")
	case NDREditDetails:
		if !cls.CanEditNDR {
			return &PreconditionFailedError{Action: "ndr_edit", State: cls.State}
		}
		req.Name = in.Update.Name
		req.Address = in.Update.AddressLine
		req.Phone = in.Update.Phone
	default:
		return &ValidationError{Field: "action", Reason: "unknown NDR action " + in.Action}
	}

	if _, err := s.carrier.NDRAction(ctx, req); err != nil {
		return err
	}

	s.metrics.Count(ctx, "NDRActionRequested", 1, map[string]string{"action": in.Action})
	return nil
}

func (s *Service) validateDeferDate(d time.Time) error {
	if d.IsZero() {
		return &ValidationError{Field: "deferred_date", Reason: "required for DEFER_DLV"}
	}
	today := s.nowFunc().Truncate(24 * time.Hour)
	day := d.Truncate(24 * time.Hour)
	if day.Before(today) {
		return &ValidationError{Field: "deferred_date", Reason: "must not be in the past"}
	}
	if day.After(today.AddDate(0, 0, deferWindowDays)) {
		return &ValidationError{
			Field:  "deferred_date",
			Reason: fmt.Sprintf("must be within %d days", deferWindowDays),
		}
	}
	return nil
}

// ReturnInput describes the reverse pickup to create after delivery.
type ReturnInput struct {
	Reason string
}

// CreateReturn manifests a reverse pickup for a delivered shipment.
func (s *Service) CreateReturn(ctx context.Context, orderID string, in ReturnInput) (string, error) {
	sh, err := s.store.Get(ctx, orderID)
	if err != nil {
		return "", err
	}
	if sh == nil || sh.AWB == "" {
		return "", ErrNotFound
	}

	unlock := s.awbLocks.Lock(sh.AWB)
	defer unlock()

	cls := sh.Classify(s.ewaybillThreshold)
	if !cls.CanCreateReturn {
		return "", &PreconditionFailedError{Action: "create_return", State: cls.State}
	}

	resp, err := s.carrier.CreateReturn(ctx, carrier.ReturnRequest{
		Shipments: []carrier.ReturnShipment{{
			OrderRef:     sh.OrderRef + "-RVP",
			Name:         sh.Consignee.Name,
			Address:      sh.Consignee.Line,
			Pincode:      sh.Consignee.Pincode,
			Phone:        sh.Consignee.Phone,
			Weight:       strconv.Itoa(sh.Package.WeightGrams),
			Quantity:     sh.Package.ItemCount,
			ReturnReason: in.Reason,
		}},
		PickupLocation: carrier.PickupLocation{Name: s.pickupLocation},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Packages) == 0 || resp.Packages[0].Waybill == "" {
		return "", &carrier.InvalidResponseError{Reason: "return manifest missing waybill"}
	}

	returnAWB := resp.Packages[0].Waybill
	if err := s.store.SetReturnAWB(ctx, orderID, returnAWB); err != nil {
		return "", err
	}
	return returnAWB, nil
}

// Track fetches carrier-side status for up to carrier.MaxTrackBatch waybills.
// Read-only: it never mutates canonical state; the webhook/poll apply path
// owns that.
func (s *Service) Track(ctx context.Context, awbs []string) ([]carrier.TrackedShipment, error) {
	if len(awbs) == 0 {
		return nil, &ValidationError{Field: "awbs", Reason: "at least one waybill required"}
	}
	if len(awbs) > carrier.MaxTrackBatch {
		return nil, &ValidationError{
			Field:  "awbs",
			Reason: fmt.Sprintf("at most %d waybills per call", carrier.MaxTrackBatch),
		}
	}

	if err := s.governor.Allow(ctx, carrier.EndpointTrack); err != nil {
		return nil, err
	}

	resp, err := s.carrier.Track(ctx, awbs)
	if err != nil {
		return nil, err
	}

	out := make([]carrier.TrackedShipment, 0, len(resp.ShipmentData))
	for _, sd := range resp.ShipmentData {
		out = append(out, sd.Shipment)
	}
	return out, nil
}

// PickupInput schedules a pickup slot.
type PickupInput struct {
	Location      string
	Date          time.Time
	Time          string
	ExpectedCount int
}

// RequestPickup schedules a pickup, reusing the carrier-assigned pickup id
// for same-day repeats at the same location.
func (s *Service) RequestPickup(ctx context.Context, in PickupInput) (string, error) {
	if in.Location == "" {
		in.Location = s.pickupLocation
	}
	if in.ExpectedCount <= 0 {
		return "", &ValidationError{Field: "expected_package_count", Reason: "must be positive"}
	}

	day := in.Date.Format("2006-01-02")
	key := fmt.Sprintf("pickup:%s:%s", in.Location, day)

	return s.governor.CachedOrFetch(ctx, key, 24*time.Hour, func(ctx context.Context) (string, error) {
		if err := s.governor.Allow(ctx, carrier.EndpointPickup); err != nil {
			return "", err
		}
		resp, err := s.carrier.CreatePickup(ctx, carrier.PickupRequest{
			PickupLocation: in.Location,
			PickupDate:     day,
			PickupTime:     in.Time,
			ExpectedCount:  in.ExpectedCount,
		})
		if err != nil {
			return "", err
		}
		return strconv.Itoa(resp.PickupID), nil
	})
}

// Serviceability is the cached verdict for one pincode.
type Serviceability struct {
	Prepaid bool `json:"prepaid"`
	COD     bool `json:"cod"`
	Pickup  bool `json:"pickup"`
}

// CheckServiceability answers whether the pincode is deliverable, consulting
// the cache before the quota-bound carrier endpoint.
func (s *Service) CheckServiceability(ctx context.Context, pincode string) (*Serviceability, error) {
	if err := validatePincode(pincode); err != nil {
		return nil, err
	}

	raw, err := s.governor.CachedOrFetch(ctx, "serviceability:"+pincode, serviceabilityTTL, func(ctx context.Context) (string, error) {
		if err := s.governor.Allow(ctx, carrier.EndpointServiceability); err != nil {
			return "", err
		}
		resp, err := s.carrier.Serviceability(ctx, pincode)
		if err != nil {
			return "", err
		}

		var svc Serviceability
		if len(resp.DeliveryCodes) > 0 {
			pc := resp.DeliveryCodes[0].PostalCode
			svc.Prepaid = strings.EqualFold(pc.Prepaid, "Y")
			svc.COD = strings.EqualFold(pc.COD, "Y")
			svc.Pickup = strings.EqualFold(pc.Pickup, "Y")
		}
		b, err := json.Marshal(svc)
		if err != nil {
			return "", err
		}
		return string(b), nil
	})
	if err != nil {
		return nil, err
	}

	var svc Serviceability
	if err := json.Unmarshal([]byte(raw), &svc); err != nil {
		return nil, fmt.Errorf("decode cached serviceability: %w", err)
	}
	return &svc, nil
}

// FetchWaybills prefetches waybill numbers under its strict quota.
func (s *Service) FetchWaybills(ctx context.Context, count int) ([]string, error) {
	if count <= 0 {
		return nil, &ValidationError{Field: "count", Reason: "must be positive"}
	}
	if err := s.governor.Allow(ctx, carrier.EndpointWaybill); err != nil {
		return nil, err
	}
	resp, err := s.carrier.FetchWaybills(ctx, count)
	if err != nil {
		return nil, err
	}
	return resp.Waybills, nil
}

// Get returns the stored shipment with its current classification attached.
func (s *Service) Get(ctx context.Context, orderID string) (*Shipment, *status.Classification, error) {
	sh, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if sh == nil {
		return nil, nil, ErrNotFound
	}
	cls := sh.Classify(s.ewaybillThreshold)
	return sh, &cls, nil
}

// requireEditable enforces the shared precondition for detail edits and
// payment conversion: forward journey not yet dispatched, or reverse pickup
// still in the Scheduled sub-status.
func (s *Service) requireEditable(sh *Shipment, action string) error {
	cls := sh.Classify(s.ewaybillThreshold)
	if !cls.CanUpdateDetails {
		return &PreconditionFailedError{Action: action, State: cls.State}
	}
	if cls.State == status.StateReversePickupPending && !strings.EqualFold(sh.StatusText, "Scheduled") {
		return &PreconditionFailedError{Action: action, State: cls.State}
	}
	return nil
}

func (s *Service) publishStatus(ctx context.Context, sh *Shipment) {
	if s.events == nil {
		return
	}
	err := s.events.PublishOrderStatus(ctx, aws.OrderStatusEvent{
		OrderID:     sh.OrderID,
		AWB:         sh.AWB,
		OrderStatus: OrderStatusFor(sh.State),
		State:       string(sh.State),
	})
	if err != nil && s.logger != nil {
		s.logger.Error("publish order status", zap.String("order_id", sh.OrderID), zap.Error(err))
	}
}

func applyUpdate(sh *Shipment, in UpdateInput) {
	if in.Name != "" {
		sh.Consignee.Name = in.Name
	}
	if in.AddressLine != "" {
		sh.Consignee.Line = in.AddressLine
	}
	if in.Phone != "" {
		sh.Consignee.Phone = in.Phone
	}
	if in.WeightGrams > 0 {
		sh.Package.WeightGrams = in.WeightGrams
	}
	if in.LengthCm > 0 {
		sh.Package.LengthCm = in.LengthCm
		sh.Package.WidthCm = in.WidthCm
		sh.Package.HeightCm = in.HeightCm
	}
	if in.EwaybillNo != "" {
		sh.EwaybillNo = in.EwaybillNo
	}
}

func validatePincode(pin string) error {
	if len(pin) != 6 {
		return &ValidationError{Field: "pincode", Reason: "must be 6 digits"}
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return &ValidationError{Field: "pincode", Reason: "must be 6 digits"}
		}
	}
	return nil
}

func decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
