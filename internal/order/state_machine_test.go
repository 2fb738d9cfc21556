package order

import (
	"testing"
	"time"
)

func TestCanTransitionAndApply(t *testing.T) {
	if !CanTransition(StatusPending, StatusProcessing) {
		t.Fatalf("expected PENDING -> PROCESSING allowed")
	}
	if CanTransition(StatusDelivered, StatusPending) {
		t.Fatalf("expected DELIVERED -> PENDING not allowed")
	}
	if CanTransition(StatusShipped, StatusCancelled) {
		t.Fatalf("expected SHIPPED -> CANCELLED not allowed")
	}

	o := &Order{Status: StatusPending}
	now := time.Now()
	if err := ApplyTransition(o, StatusProcessing, now); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if o.Status != StatusProcessing {
		t.Fatalf("expected status PROCESSING, got %s", o.Status)
	}

	if err := ApplyTransition(o, StatusDelivered, now); err == nil {
		t.Fatalf("expected invalid shortcut transition to fail")
	}

	if err := ApplyTransition(o, StatusShipped, now); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if o.ShippedAt == nil {
		t.Fatalf("expected ShippedAt set")
	}
}
