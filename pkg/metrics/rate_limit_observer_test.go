package metrics

import (
	"context"
	"testing"
	"time"
)

func TestObjectStoreThrottleDisabledByDefault(t *testing.T) {
	throttle := NewObjectStoreThrottle(0, 0, NewCollector(nil), NullLogger())

	start := time.Now()
	if err := throttle.Wait(context.Background(), "put"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("expected no delay with throttling disabled, waited %v", elapsed)
	}
}

func TestObjectStoreThrottleRecordsMetric(t *testing.T) {
	c := NewCollector(nil)
	// 1 request/second with a burst of 1: the second call must wait.
	throttle := NewObjectStoreThrottle(1, 1, c, NullLogger())

	ctx := context.Background()
	if err := throttle.Wait(ctx, "put"); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	if err := throttle.Wait(ctx, "put"); err != nil {
		t.Fatalf("second wait: %v", err)
	}

	snap := c.Snapshot()
	if snap.ObjectStoreThrottled != 1 {
		t.Fatalf("expected 1 throttled request, got %d", snap.ObjectStoreThrottled)
	}
}

func TestObjectStoreThrottleRespectsCancellation(t *testing.T) {
	throttle := NewObjectStoreThrottle(1, 1, NewCollector(nil), NullLogger())

	ctx := context.Background()
	if err := throttle.Wait(ctx, "get"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()
	if err := throttle.Wait(cancelCtx, "get"); err == nil {
		t.Error("expected error from a cancelled context while waiting")
	}
}
