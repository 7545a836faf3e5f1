package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/openfulfil/go-courier-sync/internal/aws"
	"github.com/openfulfil/go-courier-sync/internal/shipments"
	"github.com/openfulfil/go-courier-sync/internal/status"
)

// Outcome says what happened to one delivered event.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeStale      Outcome = "stale"
	OutcomeUnknownAWB Outcome = "unknown_awb"
)

// Result is the ingestion verdict for one webhook delivery.
type Result struct {
	Outcome Outcome
	AWB     string
	State   status.State
}

// RecordStore is the persistence slice the ingestor needs.
type RecordStore interface {
	GetByAWB(ctx context.Context, awb string) (*shipments.Shipment, error)
	ApplyStatus(ctx context.Context, orderID string, upd shipments.StatusUpdate, prevStatusAt *time.Time) error
}

// EventSink receives the side effects of genuinely new events.
type EventSink interface {
	PublishOrderStatus(ctx context.Context, ev aws.OrderStatusEvent) error
	PublishNotification(ctx context.Context, ev aws.NotificationEvent) error
}

// Locker serializes applies per waybill against in-flight operations.
type Locker interface {
	Lock(key string) func()
}

// Ingestor validates, parses, classifies, and idempotently applies carrier
// status pushes.
type Ingestor struct {
	store    RecordStore
	events   EventSink
	detector *NDRDetector
	metrics  *aws.Metrics
	logger   *zap.Logger

	secret            string
	ewaybillThreshold float64

	locks   Locker
	nowFunc func() time.Time
}

// IngestorConfig groups Ingestor dependencies.
type IngestorConfig struct {
	Store             RecordStore
	Events            EventSink
	Detector          *NDRDetector
	Metrics           *aws.Metrics
	Logger            *zap.Logger
	Secret            string
	EwaybillThreshold float64
	Locks             Locker
}

// NewIngestor wires a webhook ingestor.
func NewIngestor(cfg IngestorConfig) *Ingestor {
	i := &Ingestor{
		store:             cfg.Store,
		events:            cfg.Events,
		detector:          cfg.Detector,
		metrics:           cfg.Metrics,
		logger:            cfg.Logger,
		secret:            cfg.Secret,
		ewaybillThreshold: cfg.EwaybillThreshold,
		locks:             cfg.Locks,
		nowFunc:           time.Now,
	}
	if i.detector == nil {
		i.detector = NewNDRDetector(nil, nil)
	}
	if i.locks == nil {
		i.locks = noopLocker{}
	}
	return i
}

// VerifySignature checks the HMAC-SHA256 hex signature over the raw payload.
// With no secret configured, verification is skipped for backward
// compatibility with pushes set up before signing existed.
func (i *Ingestor) VerifySignature(body []byte, signature string) error {
	if i.secret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(i.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// Ingest runs the full pipeline over one raw delivery: verify, parse, apply.
func (i *Ingestor) Ingest(ctx context.Context, body []byte, signature string) (*Result, error) {
	if err := i.VerifySignature(body, signature); err != nil {
		return nil, err
	}

	ev, err := ParseEvent(body, i.nowFunc())
	if err != nil {
		return nil, err
	}

	return i.Apply(ctx, ev)
}

// Apply classifies the event and applies it to the shipment record exactly
// once per (AWB, statusDateTime) pair. Repeats and out-of-order deliveries
// are tolerated: a duplicate yields the same stored state and no second side
// effect, and a stale event never regresses an advanced state.
func (i *Ingestor) Apply(ctx context.Context, ev *Event) (*Result, error) {
	sh, err := i.store.GetByAWB(ctx, ev.AWB)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		// Not an error: the carrier pushes for shipments other systems
		// manifested under the same account. Log and acknowledge.
		i.logger.Info("webhook for unknown waybill", zap.String("awb", ev.AWB))
		i.metrics.Count(ctx, "WebhookUnknownAWB", 1, nil)
		return &Result{Outcome: OutcomeUnknownAWB, AWB: ev.AWB}, nil
	}

	unlock := i.locks.Lock(ev.AWB)
	defer unlock()

	// Re-read under the lock; an operation may have moved the record.
	sh, err = i.store.GetByAWB(ctx, ev.AWB)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return &Result{Outcome: OutcomeUnknownAWB, AWB: ev.AWB}, nil
	}

	ndrDetected, ndrReason := i.detector.Detect(ev)

	cls := status.Classify(ev.StatusType, ev.Status, status.Hints{
		NDRActive: ndrDetected || sh.NDRActive,
	})
	newState := cls.State

	if sh.LastStatusAt != nil {
		if ev.StatusAt.Before(*sh.LastStatusAt) {
			i.metrics.Count(ctx, "WebhookSkippedStale", 1, nil)
			return &Result{Outcome: OutcomeStale, AWB: ev.AWB, State: sh.State}, nil
		}
		if ev.StatusAt.Equal(*sh.LastStatusAt) && newState == sh.State {
			return &Result{Outcome: OutcomeDuplicate, AWB: ev.AWB, State: sh.State}, nil
		}
	}
	// A terminal state never regresses, whatever the event timestamp claims.
	if sh.State.IsTerminal() && newState.Rank() < sh.State.Rank() {
		i.metrics.Count(ctx, "WebhookSkippedStale", 1, nil)
		return &Result{Outcome: OutcomeStale, AWB: ev.AWB, State: sh.State}, nil
	}

	ndrActive := i.nextNDRFlag(sh, newState, ndrDetected)
	reason := sh.NDRReason
	if ndrDetected {
		reason = ndrReason
	} else if !ndrActive {
		reason = ""
	}

	upd := shipments.StatusUpdate{
		State:      newState,
		StatusType: ev.StatusType,
		StatusText: ev.Status,
		NSLCode:    ev.NSLCode,
		Location:   ev.Location,
		StatusAt:   ev.StatusAt,
		NDRActive:  ndrActive,
		NDRReason:  reason,
		Scan: shipments.ScanEntry{
			Status:       ev.Status,
			StatusType:   ev.StatusType,
			Location:     ev.Location,
			Timestamp:    ev.StatusAt,
			Instructions: ev.Instructions,
		},
	}

	if err := i.store.ApplyStatus(ctx, sh.OrderID, upd, sh.LastStatusAt); err != nil {
		if errors.Is(err, shipments.ErrStaleEvent) {
			// A concurrent apply won the conditional write; this delivery is
			// now a duplicate.
			return &Result{Outcome: OutcomeDuplicate, AWB: ev.AWB, State: sh.State}, nil
		}
		return nil, err
	}

	i.metrics.Count(ctx, "WebhookApplied", 1, map[string]string{"state": string(newState)})
	i.dispatchSideEffects(ctx, sh, newState, ndrDetected && !sh.NDRActive, reason)

	return &Result{Outcome: OutcomeApplied, AWB: ev.AWB, State: newState}, nil
}

// nextNDRFlag sets the flag on detection and clears it once the shipment
// reaches a terminal state or the RTO journey starts.
func (i *Ingestor) nextNDRFlag(sh *shipments.Shipment, newState status.State, detected bool) bool {
	if newState.IsTerminal() || newState == status.StateReturnInProgress {
		return false
	}
	if detected {
		return true
	}
	return sh.NDRActive
}

// dispatchSideEffects fires order-status sync and NDR notifications for a
// genuinely new event. Failures are logged, not propagated: the record is
// already consistent and the carrier must still get its ack.
func (i *Ingestor) dispatchSideEffects(ctx context.Context, sh *shipments.Shipment, newState status.State, ndrNew bool, ndrReason string) {
	if i.events == nil {
		return
	}

	if newState != sh.State {
		err := i.events.PublishOrderStatus(ctx, aws.OrderStatusEvent{
			OrderID:     sh.OrderID,
			AWB:         sh.AWB,
			OrderStatus: shipments.OrderStatusFor(newState),
			State:       string(newState),
		})
		if err != nil {
			i.logger.Error("publish order status", zap.String("awb", sh.AWB), zap.Error(err))
		}
	}

	if ndrNew {
		i.metrics.Count(ctx, "NDRDetected", 1, nil)
		err := i.events.PublishNotification(ctx, aws.NotificationEvent{
			OrderID: sh.OrderID,
			AWB:     sh.AWB,
			Kind:    "ndr_detected",
			Reason:  ndrReason,
		})
		if err != nil {
			i.logger.Error("publish ndr notification", zap.String("awb", sh.AWB), zap.Error(err))
		}
	}
}

type noopLocker struct{}

func (noopLocker) Lock(string) func() { return func() {} }
