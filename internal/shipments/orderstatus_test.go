package shipments

import (
	"testing"

	"github.com/openfulfil/go-courier-sync/internal/status"
)

func TestOrderStatusFor(t *testing.T) {
	cases := []struct {
		state status.State
		want  string
	}{
		{status.StateManifested, OrderProcessing},
		{status.StatePendingForward, OrderShipped},
		{status.StateInTransitForward, OrderShipped},
		{status.StateDispatchedForward, OrderShipped},
		{status.StateDelivered, OrderCompleted},
		{status.StateReturnInProgress, OrderShipped},
		{status.StateReturnCompleted, OrderCancelled},
		{status.StateCancelled, OrderCancelled},
		{status.StateReversePickupPending, OrderShipped},
		{status.StateReversePickupInTransit, OrderShipped},
		{status.StateReversePickupCompleted, OrderCompleted},
		{status.StateUnknown, OrderProcessing},
	}
	for _, tc := range cases {
		if got := OrderStatusFor(tc.state); got != tc.want {
			t.Errorf("OrderStatusFor(%s) = %s, want %s", tc.state, got, tc.want)
		}
	}
}
