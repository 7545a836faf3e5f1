package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/openfulfil/go-courier-sync/internal/aws"
	"github.com/openfulfil/go-courier-sync/internal/shipments"
	"github.com/openfulfil/go-courier-sync/internal/status"
)

// fakeStore keeps shipments in memory and honors the conditional write
// semantics of the real store.
type fakeStore struct {
	mu      sync.Mutex
	byAWB   map[string]*shipments.Shipment
	applies int

	// forceStale makes the next ApplyStatus report a lost conditional
	// write, as if another process updated the record first.
	forceStale bool
}

func newFakeStore(shs ...*shipments.Shipment) *fakeStore {
	s := &fakeStore{byAWB: map[string]*shipments.Shipment{}}
	for _, sh := range shs {
		s.byAWB[sh.AWB] = sh
	}
	return s
}

func (s *fakeStore) GetByAWB(ctx context.Context, awb string) (*shipments.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.byAWB[awb]
	if !ok {
		return nil, nil
	}
	cp := *sh
	return &cp, nil
}

func (s *fakeStore) ApplyStatus(ctx context.Context, orderID string, upd shipments.StatusUpdate, prev *time.Time) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forceStale {
		s.forceStale = false
		return shipments.ErrStaleEvent
	}
	for _, sh := range s.byAWB {
		if sh.OrderID != orderID {
			continue
		}
		stored := sh.LastStatusAt
		if (stored == nil) != (prev == nil) || (stored != nil && !stored.Equal(*prev)) {
			return shipments.ErrStaleEvent
		}
		s.applies++
		sh.State = upd.State
		sh.StatusType = upd.StatusType
		sh.StatusText = upd.StatusText
		sh.NSLCode = upd.NSLCode
		sh.LastLocation = upd.Location
		at := upd.StatusAt
		sh.LastStatusAt = &at
		sh.NDRActive = upd.NDRActive
		sh.NDRReason = upd.NDRReason
		sh.ScanHistory = append(sh.ScanHistory, upd.Scan)
		return nil
	}
	return shipments.ErrNotFound
}

// fakeSink records published events.
type fakeSink struct {
	mu            sync.Mutex
	statusEvents  []aws.OrderStatusEvent
	notifications []aws.NotificationEvent
}

func (s *fakeSink) PublishOrderStatus(ctx context.Context, ev aws.OrderStatusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusEvents = append(s.statusEvents, ev)
	return nil
}

func (s *fakeSink) PublishNotification(ctx context.Context, ev aws.NotificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, ev)
	return nil
}

func testShipment(awb string, state status.State, lastAt *time.Time) *shipments.Shipment {
	return &shipments.Shipment{
		OrderID:      "ORD-" + awb,
		OrderRef:     "ORD-" + awb,
		AWB:          awb,
		State:        state,
		LastStatusAt: lastAt,
	}
}

func newTestIngestor(store RecordStore, sink EventSink) *Ingestor {
	return NewIngestor(IngestorConfig{
		Store:  store,
		Events: sink,
		Logger: zap.NewNop(),
	})
}

func at(h int) time.Time {
	return time.Date(2026, 3, 1, h, 0, 0, 0, time.UTC)
}

func TestApply_AdvancesState(t *testing.T) {
	store := newFakeStore(testShipment("AWB001", status.StateManifested, nil))
	sink := &fakeSink{}
	ing := newTestIngestor(store, sink)

	res, err := ing.Apply(context.Background(), &Event{
		AWB:        "AWB001",
		StatusType: "UD",
		Status:     "In Transit",
		StatusAt:   at(10),
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if res.Outcome != OutcomeApplied || res.State != status.StateInTransitForward {
		t.Fatalf("result = %+v", res)
	}

	sh, _ := store.GetByAWB(context.Background(), "AWB001")
	if sh.State != status.StateInTransitForward {
		t.Fatalf("stored state = %s", sh.State)
	}
	if len(sink.statusEvents) != 1 || sink.statusEvents[0].OrderStatus != shipments.OrderShipped {
		t.Fatalf("status events = %+v", sink.statusEvents)
	}
}

func TestApply_DuplicateDelivery(t *testing.T) {
	store := newFakeStore(testShipment("AWB001", status.StateManifested, nil))
	sink := &fakeSink{}
	ing := newTestIngestor(store, sink)

	ev := &Event{AWB: "AWB001", StatusType: "UD", Status: "In Transit", StatusAt: at(10)}

	if res, err := ing.Apply(context.Background(), ev); err != nil || res.Outcome != OutcomeApplied {
		t.Fatalf("first apply: res=%+v err=%v", res, err)
	}
	res, err := ing.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if res.Outcome != OutcomeDuplicate {
		t.Fatalf("second apply outcome = %s, want duplicate", res.Outcome)
	}
	if store.applies != 1 {
		t.Fatalf("applies = %d, want 1", store.applies)
	}
	if len(sink.statusEvents) != 1 {
		t.Fatalf("side effects fired %d times, want 1", len(sink.statusEvents))
	}
}

func TestApply_StaleEventNeverRegresses(t *testing.T) {
	last := at(12)
	store := newFakeStore(testShipment("AWB001", status.StateDelivered, &last))
	ing := newTestIngestor(store, &fakeSink{})

	res, err := ing.Apply(context.Background(), &Event{
		AWB:        "AWB001",
		StatusType: "UD",
		Status:     "In Transit",
		StatusAt:   at(10), // older than the stored event
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if res.Outcome != OutcomeStale || res.State != status.StateDelivered {
		t.Fatalf("result = %+v, want stale/delivered", res)
	}
}

func TestApply_TerminalRankGuard(t *testing.T) {
	// A cancellation scan claiming a newer timestamp still cannot undo a
	// confirmed delivery.
	last := at(12)
	store := newFakeStore(testShipment("AWB001", status.StateDelivered, &last))
	ing := newTestIngestor(store, &fakeSink{})

	res, err := ing.Apply(context.Background(), &Event{
		AWB:        "AWB001",
		StatusType: "CN",
		Status:     "Cancelled",
		StatusAt:   at(13),
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if res.Outcome != OutcomeStale || res.State != status.StateDelivered {
		t.Fatalf("result = %+v, want stale/delivered", res)
	}
}

func TestApply_UnknownAWBIsAcknowledged(t *testing.T) {
	ing := newTestIngestor(newFakeStore(), &fakeSink{})

	res, err := ing.Apply(context.Background(), &Event{AWB: "GHOST", StatusType: "UD", Status: "In Transit", StatusAt: at(10)})
	if err != nil {
		t.Fatalf("unknown waybill must not error: %v", err)
	}
	if res.Outcome != OutcomeUnknownAWB {
		t.Fatalf("outcome = %s, want unknown_awb", res.Outcome)
	}
}

func TestApply_NDRDetection(t *testing.T) {
	store := newFakeStore(testShipment("AWB001", status.StateDispatchedForward, nil))
	sink := &fakeSink{}
	ing := newTestIngestor(store, sink)

	res, err := ing.Apply(context.Background(), &Event{
		AWB:          "AWB001",
		StatusType:   "UD",
		Status:       "In Transit",
		NSLCode:      "EOD-74",
		Instructions: "Consignee not available",
		StatusAt:     at(10),
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if res.Outcome != OutcomeApplied {
		t.Fatalf("outcome = %s", res.Outcome)
	}

	sh, _ := store.GetByAWB(context.Background(), "AWB001")
	if !sh.NDRActive || sh.NDRReason == "" {
		t.Fatalf("shipment = NDRActive=%v reason=%q, want flag set", sh.NDRActive, sh.NDRReason)
	}
	if len(sink.notifications) != 1 || sink.notifications[0].Kind != "ndr_detected" {
		t.Fatalf("notifications = %+v", sink.notifications)
	}

	// A second NDR scan must not re-notify.
	if _, err := ing.Apply(context.Background(), &Event{
		AWB:          "AWB001",
		StatusType:   "UD",
		Status:       "In Transit",
		NSLCode:      "EOD-74",
		Instructions: "Consignee not available",
		StatusAt:     at(11),
	}); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if len(sink.notifications) != 1 {
		t.Fatalf("notifications = %d, want still 1", len(sink.notifications))
	}
}

func TestApply_NDRClearsOnTerminal(t *testing.T) {
	last := at(10)
	sh := testShipment("AWB001", status.StateDispatchedForward, &last)
	sh.NDRActive = true
	sh.NDRReason = "Consignee not available"
	store := newFakeStore(sh)
	ing := newTestIngestor(store, &fakeSink{})

	if _, err := ing.Apply(context.Background(), &Event{
		AWB:        "AWB001",
		StatusType: "DL",
		Status:     "Delivered",
		StatusAt:   at(15),
	}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	got, _ := store.GetByAWB(context.Background(), "AWB001")
	if got.NDRActive || got.NDRReason != "" {
		t.Fatalf("NDR flag must clear on delivery: active=%v reason=%q", got.NDRActive, got.NDRReason)
	}
}

func TestApply_ConcurrentWriterWins(t *testing.T) {
	// Simulate the conditional write losing to a concurrent apply: the
	// store reports stale, the ingestor reports duplicate.
	last := at(10)
	store := newFakeStore(testShipment("AWB001", status.StateInTransitForward, &last))
	store.forceStale = true
	ing := newTestIngestor(store, &fakeSink{})

	res, err := ing.Apply(context.Background(), &Event{
		AWB:        "AWB001",
		StatusType: "UD",
		Status:     "Dispatched",
		StatusAt:   at(11),
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if res.Outcome != OutcomeDuplicate {
		t.Fatalf("outcome = %s, want duplicate after losing the write race", res.Outcome)
	}
}

func TestVerifySignature(t *testing.T) {
	ing := NewIngestor(IngestorConfig{Secret: "topsecret", Logger: zap.NewNop(), Store: newFakeStore()})
	body := []byte(`{"awb":"AWB001"}`)

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(body)
	good := hex.EncodeToString(mac.Sum(nil))

	if err := ing.VerifySignature(body, good); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := ing.VerifySignature(body, "deadbeef"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}

	open := NewIngestor(IngestorConfig{Logger: zap.NewNop(), Store: newFakeStore()})
	if err := open.VerifySignature(body, ""); err != nil {
		t.Fatalf("unsigned mode must skip verification: %v", err)
	}
}
