package metrics

import (
	"sync/atomic"
	"time"

	"github.com/filecore/transfer-core/pkg/workerpool"
)

// WorkerPoolObserver implements workerpool.Observer and records metrics
// for the CPU-bound worker pool (C9): queue wait time, execution latency,
// and per-JobKind throughput.
type WorkerPoolObserver struct {
	jobsSubmitted atomic.Uint64
	jobsCompleted atomic.Uint64
	jobsFailed    atomic.Uint64
	jobsRejected  atomic.Uint64

	queueWaitLatency *Histogram
	execLatency      *Histogram

	logger   *Logger
	poolName string
}

// Default bucket configurations for worker pool histograms, in microseconds.
var (
	// QueueWaitLatencyBuckets for time spent waiting in the pool's queue.
	QueueWaitLatencyBuckets = []float64{10, 50, 100, 250, 500, 1000, 5000, 10000, 50000, 100000}

	// JobExecLatencyBuckets for job execution duration once a worker picks it up.
	JobExecLatencyBuckets = []float64{10, 50, 100, 250, 500, 1000, 5000, 10000, 50000, 100000}
)

// WorkerPoolObserverConfig configures a worker pool observer.
type WorkerPoolObserverConfig struct {
	Logger   *Logger
	PoolName string
}

// NewWorkerPoolObserver creates a new worker pool observer.
func NewWorkerPoolObserver(cfg WorkerPoolObserverConfig) *WorkerPoolObserver {
	if cfg.Logger == nil {
		cfg.Logger = GetLogger()
	}
	if cfg.PoolName == "" {
		cfg.PoolName = "default"
	}

	return &WorkerPoolObserver{
		queueWaitLatency: NewHistogram(QueueWaitLatencyBuckets),
		execLatency:      NewHistogram(JobExecLatencyBuckets),
		logger:           cfg.Logger.Named("workerpool").With(Fields{"pool": cfg.PoolName}),
		poolName:         cfg.PoolName,
	}
}

// Ensure WorkerPoolObserver implements workerpool.Observer.
var _ workerpool.Observer = (*WorkerPoolObserver)(nil)

// OnSubmit implements workerpool.Observer.
func (o *WorkerPoolObserver) OnSubmit(kind workerpool.JobKind, queueWait time.Duration) {
	o.jobsSubmitted.Add(1)
	o.queueWaitLatency.Observe(float64(queueWait.Microseconds()))
	o.logger.Debug("job dequeued", Fields{"kind": int(kind), "queue_wait_us": queueWait.Microseconds()})
}

// OnComplete implements workerpool.Observer.
func (o *WorkerPoolObserver) OnComplete(kind workerpool.JobKind, execDuration time.Duration, err error) {
	o.jobsCompleted.Add(1)
	o.execLatency.Observe(float64(execDuration.Microseconds()))
	if err != nil {
		o.jobsFailed.Add(1)
		o.logger.Warn("job failed", Fields{"kind": int(kind), "error": err.Error()})
		return
	}
	o.logger.Debug("job completed", Fields{"kind": int(kind), "exec_us": execDuration.Microseconds()})
}

// OnRejected implements workerpool.Observer.
func (o *WorkerPoolObserver) OnRejected(kind workerpool.JobKind, reason string) {
	o.jobsRejected.Add(1)
	o.logger.Warn("job rejected", Fields{"kind": int(kind), "reason": reason})
}

// WorkerPoolMetricsSnapshot is a snapshot of worker pool metrics.
type WorkerPoolMetricsSnapshot struct {
	JobsSubmitted    uint64
	JobsCompleted    uint64
	JobsFailed       uint64
	JobsRejected     uint64
	QueueWaitLatency HistogramSummary
	ExecLatency      HistogramSummary
	PoolName         string
}

// Snapshot returns a point-in-time snapshot of worker pool metrics.
func (o *WorkerPoolObserver) Snapshot() WorkerPoolMetricsSnapshot {
	return WorkerPoolMetricsSnapshot{
		JobsSubmitted:    o.jobsSubmitted.Load(),
		JobsCompleted:    o.jobsCompleted.Load(),
		JobsFailed:       o.jobsFailed.Load(),
		JobsRejected:     o.jobsRejected.Load(),
		QueueWaitLatency: o.queueWaitLatency.Summary(),
		ExecLatency:      o.execLatency.Summary(),
		PoolName:         o.poolName,
	}
}

// Reset clears all metrics (useful for testing).
func (o *WorkerPoolObserver) Reset() {
	o.jobsSubmitted.Store(0)
	o.jobsCompleted.Store(0)
	o.jobsFailed.Store(0)
	o.jobsRejected.Store(0)
	o.queueWaitLatency.Reset()
	o.execLatency.Reset()
}
