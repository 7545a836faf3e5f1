package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openfulfil/go-courier-sync/internal/carrier"
	"github.com/openfulfil/go-courier-sync/internal/shipments"
	"github.com/openfulfil/go-courier-sync/internal/status"
	"github.com/openfulfil/go-courier-sync/internal/webhook"
)

// recheck intervals by journey phase. Later phases move faster, so they are
// polled more often.
var recheckAfter = map[status.State]time.Duration{
	status.StateManifested:             4 * time.Hour,
	status.StatePendingForward:         2 * time.Hour,
	status.StateInTransitForward:       time.Hour,
	status.StateDispatchedForward:      30 * time.Minute,
	status.StateReturnInProgress:       2 * time.Hour,
	status.StateReversePickupPending:   4 * time.Hour,
	status.StateReversePickupInTransit: 2 * time.Hour,
}

const defaultRecheck = 2 * time.Hour

// RecordLister is the store slice the poller reads open shipments from.
type RecordLister interface {
	ListOpen(ctx context.Context) ([]shipments.Shipment, error)
}

// Tracker is the carrier slice the poller pulls statuses with.
type Tracker interface {
	Track(ctx context.Context, awbs []string) (*carrier.TrackResponse, error)
}

// Applier funnels polled statuses through the webhook apply path.
type Applier interface {
	Apply(ctx context.Context, ev *webhook.Event) (*webhook.Result, error)
}

// Poller periodically pulls carrier status for open shipments whose last
// known event has gone stale, covering webhook deliveries that never
// arrived.
type Poller struct {
	store    RecordLister
	tracker  Tracker
	applier  Applier
	logger   *zap.Logger
	schedule string

	mu      sync.Mutex
	busy    bool
	nowFunc func() time.Time
}

// NewPoller wires a status poller.
func NewPoller(store RecordLister, tracker Tracker, applier Applier, logger *zap.Logger, schedule string) *Poller {
	return &Poller{
		store:    store,
		tracker:  tracker,
		applier:  applier,
		logger:   logger,
		schedule: schedule,
		nowFunc:  time.Now,
	}
}

// Schedule returns the cron expression driving this poller.
func (p *Poller) Schedule() string {
	return p.schedule
}

// Ready reports whether a run may start. A still-running sweep blocks the
// next tick rather than stacking.
func (p *Poller) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.busy
}

// Execute runs one sweep.
func (p *Poller) Execute() {
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return
	}
	p.busy = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.busy = false
		p.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := p.Sweep(ctx); err != nil {
		p.logger.Error("poll sweep failed", zap.Error(err))
	}
}

// Sweep lists open shipments, filters to the stale ones, and applies their
// current carrier status in batches.
func (p *Poller) Sweep(ctx context.Context) error {
	open, err := p.store.ListOpen(ctx)
	if err != nil {
		return err
	}

	now := p.nowFunc()
	due := make([]string, 0, len(open))
	for _, sh := range open {
		if sh.AWB == "" {
			continue
		}
		if p.shouldCheck(&sh, now) {
			due = append(due, sh.AWB)
		}
	}
	if len(due) == 0 {
		return nil
	}

	p.logger.Info("polling stale shipments", zap.Int("due", len(due)), zap.Int("open", len(open)))

	for start := 0; start < len(due); start += carrier.MaxTrackBatch {
		end := start + carrier.MaxTrackBatch
		if end > len(due) {
			end = len(due)
		}
		if err := p.pollBatch(ctx, due[start:end]); err != nil {
			// keep going; remaining batches may still succeed
			p.logger.Error("batch poll failed", zap.Error(err), zap.Int("batch_size", end-start))
		}
	}
	return nil
}

func (p *Poller) pollBatch(ctx context.Context, awbs []string) error {
	resp, err := p.tracker.Track(ctx, awbs)
	if err != nil {
		return err
	}

	now := p.nowFunc()
	for _, sd := range resp.ShipmentData {
		ev := webhook.EventFromTracking(sd.Shipment, now)
		if ev.AWB == "" {
			continue
		}
		res, err := p.applier.Apply(ctx, ev)
		if err != nil {
			p.logger.Error("poll apply failed", zap.String("awb", ev.AWB), zap.Error(err))
			continue
		}
		if res.Outcome == webhook.OutcomeApplied {
			p.logger.Info("polled status applied",
				zap.String("awb", res.AWB),
				zap.String("state", string(res.State)))
		}
	}
	return nil
}

// shouldCheck is the recheck policy: a shipment is due when its last event
// is older than the interval for its current phase.
func (p *Poller) shouldCheck(sh *shipments.Shipment, now time.Time) bool {
	last := sh.UpdatedAt
	if sh.LastStatusAt != nil && sh.LastStatusAt.After(last) {
		last = *sh.LastStatusAt
	}

	interval, ok := recheckAfter[sh.State]
	if !ok {
		interval = defaultRecheck
	}
	return now.Sub(last) >= interval
}
