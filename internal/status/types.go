package status

// State is the canonical shipment state derived from raw carrier status
// fields. Raw strings must never be branched on outside this package.
type State string

const (
	StateUnknown                State = "UNKNOWN"
	StateManifested             State = "MANIFESTED"
	StatePendingForward         State = "PENDING"
	StateInTransitForward       State = "IN_TRANSIT"
	StateDispatchedForward      State = "DISPATCHED"
	StateDelivered              State = "DELIVERED"
	StateReturnInProgress       State = "RETURN_IN_PROGRESS"
	StateReturnCompleted        State = "RTO_COMPLETED"
	StateReversePickupPending   State = "RVP_PENDING"
	StateReversePickupInTransit State = "RVP_IN_TRANSIT"
	StateReversePickupCompleted State = "DTO_COMPLETED"
	StateCancelled              State = "CANCELLED"
)

// stateRanks orders states by how far along the lifecycle they are. A stored
// state never regresses to a lower-ranked one on a stale or duplicate event.
// Delivered outranks Cancelled: a delivery confirmed by the carrier wins over
// a locally attempted cancel.
var stateRanks = map[State]int{
	StateUnknown:                0,
	StateManifested:             10,
	StatePendingForward:         20,
	StateReversePickupPending:   20,
	StateInTransitForward:       30,
	StateReversePickupInTransit: 30,
	StateDispatchedForward:      40,
	StateReturnInProgress:       50,
	StateCancelled:              90,
	StateDelivered:              100,
	StateReturnCompleted:        100,
	StateReversePickupCompleted: 100,
}

// Rank returns the lifecycle rank used by the no-regression rule.
func (s State) Rank() int {
	return stateRanks[s]
}

// IsTerminal reports whether no further lifecycle transitions are legal.
func (s State) IsTerminal() bool {
	switch s {
	case StateDelivered, StateReturnCompleted, StateReversePickupCompleted, StateCancelled:
		return true
	}
	return false
}

// Hints carries locally persisted facts the raw status fields alone cannot
// express.
type Hints struct {
	// NDRActive is the persisted non-delivery flag on the shipment record.
	NDRActive bool
	// DeclaredValue is the order value used for the e-waybill threshold.
	DeclaredValue float64
	// EwaybillThreshold is the configured value above which an e-waybill
	// number is statutory. Zero disables the check.
	EwaybillThreshold float64
}

// Classification is the full verdict for one (statusType, status) pair.
type Classification struct {
	State State

	// Uncertain marks classifications derived from garbage or empty carrier
	// data. Callers should surface a "status may be stale, refresh" signal
	// instead of blocking actions.
	Uncertain bool

	IsTerminal bool

	CanCancel bool
	// BeforePickup distinguishes a cancel with a full refund (package never
	// picked up) from a cancel that triggers an RTO with no refund.
	BeforePickup bool

	// CanUpdateDetails covers address/phone/weight/dimension edits and
	// payment-mode conversion.
	CanUpdateDetails bool

	// NDR actions. All three require the persisted NDR flag.
	CanReattempt bool
	CanDefer     bool
	CanEditNDR   bool

	CanCreateReturn bool

	// EwaybillRequired is set when the declared value crosses the configured
	// threshold and the shipment is still in flight.
	EwaybillRequired bool
}
