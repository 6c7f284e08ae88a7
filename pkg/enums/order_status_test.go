package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusReady, true},
		{OrderStatusConfirmed, OrderStatusPending, false},
		{OrderStatusReady, OrderStatusPreparing, false},
		{OrderStatusPending, OrderStatusPending, false},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPreparing, OrderStatusCancelled, true},
		{OrderStatusReady, OrderStatusCancelled, false},
		{OrderStatusOutForDelivery, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{OrderStatusOutForDelivery, OrderStatusDelivered, true},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		if !status.IsTerminal() {
			t.Errorf("%s must be terminal", status)
		}
	}
	if OrderStatusReady.IsTerminal() {
		t.Error("READY must not be terminal")
	}
}

func TestParseOrderStatus(t *testing.T) {
	if status, err := ParseOrderStatus("PREPARING"); err != nil || status != OrderStatusPreparing {
		t.Fatalf("got %s/%v", status, err)
	}
	if _, err := ParseOrderStatus("preparing"); err == nil {
		t.Fatal("lowercase input must be rejected")
	}
}
