package status

import "strings"

// Carrier status types. These are the coarse journey classifiers the carrier
// attaches to every scan.
const (
	TypeUndelivered   = "UD" // forward journey active
	TypeDelivered     = "DL" // terminal scans, including RTO/DTO completion
	TypeReturn        = "RT" // RTO journey active
	TypePickupPending = "PP" // reverse pickup scheduled
	TypePickedUp      = "PU" // reverse pickup in transit
	TypeCancelled     = "CN"
)

// Classify maps raw carrier status fields to a canonical state and the set of
// legal operations. It is pure and total: any input pair yields exactly one
// classification and never an error. Precedence is ordered, first match wins.
func Classify(statusType, statusText string, hints Hints) Classification {
	st := strings.ToUpper(strings.TrimSpace(statusType))
	text := strings.TrimSpace(statusText)

	state, uncertain := classifyState(st, text)
	return derive(state, uncertain, hints)
}

func classifyState(statusType, text string) (State, bool) {
	upper := strings.ToUpper(text)

	switch statusType {
	case TypeDelivered:
		switch upper {
		case "RTO":
			return StateReturnCompleted, false
		case "DTO":
			return StateReversePickupCompleted, false
		}
		return StateDelivered, false
	case TypeReturn:
		return StateReturnInProgress, false
	case TypePickupPending:
		return StateReversePickupPending, false
	case TypePickedUp:
		return StateReversePickupInTransit, false
	case TypeCancelled:
		return StateCancelled, false
	}

	switch upper {
	case "CANCELLED", "CANCELED", "CLOSED":
		return StateCancelled, false
	}

	if statusType != TypeUndelivered {
		// Legacy payloads omit the status type, and the carrier occasionally
		// echoes garbage like "error" or "success". Infer from the status
		// text alone and fall through to the forward sub-classification.
		if state, ok := inferLegacy(upper); ok {
			return state, false
		}
		if text == "" {
			return StateUnknown, true
		}
		state := classifyForward(upper)
		return state, !knownForward(upper)
	}

	return classifyForward(upper), false
}

// inferLegacy handles records that predate the statusType field.
func inferLegacy(upper string) (State, bool) {
	switch {
	case upper == "DELIVERED":
		return StateDelivered, true
	case strings.Contains(upper, "RTO"), strings.Contains(upper, "RETURNED"):
		return StateReturnCompleted, true
	case strings.Contains(upper, "DTO"):
		return StateReversePickupCompleted, true
	}
	return StateUnknown, false
}

// classifyForward sub-classifies an active forward journey by status text.
// Anything unrecognized lands on Manifested, the safest non-terminal default.
func classifyForward(upper string) State {
	switch {
	case strings.Contains(upper, "DISPATCHED"), strings.Contains(upper, "OUT FOR"):
		return StateDispatchedForward
	case strings.Contains(upper, "TRANSIT") && !strings.Contains(upper, "NOT PICKED"):
		return StateInTransitForward
	case upper == "PENDING":
		return StatePendingForward
	}
	return StateManifested
}

func knownForward(upper string) bool {
	switch {
	case upper == "",
		upper == "PENDING",
		upper == "OPEN",
		upper == "SCHEDULED",
		upper == "MANIFESTED",
		strings.Contains(upper, "NOT PICKED"),
		strings.Contains(upper, "DISPATCHED"),
		strings.Contains(upper, "OUT FOR"),
		strings.Contains(upper, "TRANSIT"):
		return true
	}
	return false
}

func derive(state State, uncertain bool, hints Hints) Classification {
	terminal := state.IsTerminal()

	c := Classification{
		State:      state,
		Uncertain:  uncertain,
		IsTerminal: terminal,
	}

	c.CanCancel = !terminal &&
		state != StateDispatchedForward &&
		state != StateReturnInProgress
	c.BeforePickup = state == StateManifested

	c.CanUpdateDetails = state == StateManifested ||
		state == StateInTransitForward ||
		state == StatePendingForward ||
		state == StateReversePickupPending

	ndr := hints.NDRActive && !terminal
	c.CanReattempt = ndr
	c.CanDefer = ndr
	c.CanEditNDR = ndr

	c.CanCreateReturn = state == StateDelivered

	c.EwaybillRequired = !terminal &&
		hints.EwaybillThreshold > 0 &&
		hints.DeclaredValue > hints.EwaybillThreshold

	return c
}
