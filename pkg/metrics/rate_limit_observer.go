package metrics

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// ObjectStoreThrottle smooths the transfer core's own request rate against
// presigned PUT/GET endpoints, instrumenting every wait. A zero-value
// limiter (rps <= 0) disables throttling entirely.
type ObjectStoreThrottle struct {
	limiter   *rate.Limiter
	collector *Collector
	logger    *Logger
}

// NewObjectStoreThrottle builds a throttle allowing rps requests/second
// with the given burst. rps <= 0 disables throttling.
func NewObjectStoreThrottle(rps float64, burst int, collector *Collector, logger *Logger) *ObjectStoreThrottle {
	if collector == nil {
		collector = Global()
	}
	if logger == nil {
		logger = GetLogger()
	}

	var limiter *rate.Limiter
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}

	return &ObjectStoreThrottle{
		limiter:   limiter,
		collector: collector,
		logger:    logger.Named("object_store_throttle"),
	}
}

// Wait blocks until op is permitted to proceed against the object store,
// recording a metric and a debug log whenever it actually had to wait.
func (t *ObjectStoreThrottle) Wait(ctx context.Context, op string) error {
	if t.limiter == nil {
		return nil
	}

	reservation := t.limiter.Reserve()
	if !reservation.OK() {
		return nil
	}
	delay := reservation.Delay()
	if delay <= 0 {
		return nil
	}

	t.collector.RecordObjectStoreThrottled()
	t.logger.Debug("object store request throttled", Fields{"op": op, "delay_ms": delay.Milliseconds()})

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		reservation.Cancel()
		return ctx.Err()
	}
}
