package shipments

import "github.com/openfulfil/go-courier-sync/internal/status"

// Order-management statuses the engine can set.
const (
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
)

// OrderStatusFor maps a canonical shipment state to the status visible on the
// order-management side.
func OrderStatusFor(st status.State) string {
	switch st {
	case status.StateDelivered, status.StateReversePickupCompleted:
		return OrderCompleted
	case status.StateReturnCompleted, status.StateCancelled:
		return OrderCancelled
	case status.StateInTransitForward, status.StateDispatchedForward,
		status.StatePendingForward, status.StateReturnInProgress,
		status.StateReversePickupPending, status.StateReversePickupInTransit:
		return OrderShipped
	}
	return OrderProcessing
}
