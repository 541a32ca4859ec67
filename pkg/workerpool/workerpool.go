// Package workerpool implements the CPU-bound worker pool (C9): a small,
// fixed-size pool of stateless workers draining a bounded job queue, used
// to offload AEAD encrypt/decrypt, compression, and hashing off the
// network-bound goroutines driving upload/download I/O.
package workerpool

import (
	"context"
	"sync"
	"time"

	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/internal/xerrors"
	"github.com/filecore/transfer-core/pkg/primitives"
)

// Observer receives lifecycle events for jobs passing through a Pool. All
// methods must be safe for concurrent use and must not block.
type Observer interface {
	// OnSubmit is called once a job has been accepted onto the queue, with
	// the time it waited there before a worker picked it up.
	OnSubmit(kind JobKind, queueWait time.Duration)
	// OnComplete is called when a worker finishes running a job.
	OnComplete(kind JobKind, execDuration time.Duration, err error)
	// OnRejected is called when Submit could not enqueue the job at all
	// (pool closed or context cancelled before acceptance).
	OnRejected(kind JobKind, reason string)
}

type noopObserver struct{}

func (noopObserver) OnSubmit(JobKind, time.Duration)          {}
func (noopObserver) OnComplete(JobKind, time.Duration, error) {}
func (noopObserver) OnRejected(JobKind, string)               {}

// JobKind enumerates the sum type of work a worker may perform, replacing
// the dynamic, ad-hoc dispatch this codebase's ancestry uses for its
// message-passing pool (§9).
type JobKind int

const (
	JobDecryptChunk JobKind = iota
	JobEncryptChunk
	JobCompress
	JobDecompress
	JobHashWhole
)

// Job carries a unit of work into the pool by transfer of ownership: the
// submitter must not touch Input after Submit returns, and the worker
// returns a freshly-allocated Output buffer rather than mutating Input in
// place.
type Job struct {
	Kind  JobKind
	Input []byte

	// Run performs the job's work and is supplied by the caller, since the
	// pool itself is domain-agnostic about what a given JobKind means; it
	// only guarantees bounded concurrency, ownership transfer, and
	// zeroization of Input after Run returns.
	Run func(ctx context.Context, input []byte) (output []byte, err error)
}

// Result is the outcome of one submitted Job.
type Result struct {
	Output []byte
	Err    error
}

// Pool is a bounded-queue pool of stateless CPU workers.
type Pool struct {
	jobs     chan jobRequest
	wg       sync.WaitGroup
	observer Observer

	closeOnce sync.Once
	closed    chan struct{}
}

type jobRequest struct {
	job      Job
	ctx      context.Context
	result   chan Result
	queuedAt time.Time
}

// New starts a Pool with size workers (clamped to
// [constants.MinWorkerPoolSize, constants.MaxWorkerPoolSize]) and a queue
// of the given depth. A non-positive depth selects
// constants.DefaultWorkerQueueDepth.
func New(size, queueDepth int) *Pool {
	return NewWithObserver(size, queueDepth, nil)
}

// NewWithObserver is New with an Observer notified of job lifecycle
// events. A nil observer behaves exactly like New.
func NewWithObserver(size, queueDepth int, observer Observer) *Pool {
	if size < constants.MinWorkerPoolSize {
		size = constants.MinWorkerPoolSize
	}
	if size > constants.MaxWorkerPoolSize {
		size = constants.MaxWorkerPoolSize
	}
	if queueDepth <= 0 {
		queueDepth = constants.DefaultWorkerQueueDepth
	}
	if observer == nil {
		observer = noopObserver{}
	}

	p := &Pool{
		jobs:     make(chan jobRequest, queueDepth),
		closed:   make(chan struct{}),
		observer: observer,
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for req := range p.jobs {
		p.observer.OnSubmit(req.job.Kind, time.Since(req.queuedAt))

		select {
		case <-req.ctx.Done():
			// Cancelled before a worker picked it up: discard without
			// running, per §5's prompt-cancellation guarantee.
			primitives.Zeroize(req.job.Input)
			continue
		case <-p.closed:
			// Close was called before a worker picked it up: discard
			// without running.
			primitives.Zeroize(req.job.Input)
			req.result <- Result{Err: xerrors.New("workerpool.run", xerrors.ErrCancelled, xerrors.ErrCancelled)}
			continue
		default:
		}

		start := time.Now()
		output, err := req.job.Run(req.ctx, req.job.Input)
		p.observer.OnComplete(req.job.Kind, time.Since(start), err)
		primitives.Zeroize(req.job.Input)
		select {
		case req.result <- Result{Output: output, Err: err}:
		case <-req.ctx.Done():
		}
	}
}

// Submit enqueues job, blocking while the queue is full, then waits for
// the job's result. It returns a Cancelled error if ctx is done before
// the job is enqueued or before it completes.
func (p *Pool) Submit(ctx context.Context, job Job) ([]byte, error) {
	req := jobRequest{job: job, ctx: ctx, result: make(chan Result, 1), queuedAt: time.Now()}

	if ctx.Err() != nil {
		p.observer.OnRejected(job.Kind, "cancelled")
		return nil, xerrors.New("workerpool.submit", xerrors.ErrCancelled, ctx.Err())
	}

	select {
	case p.jobs <- req:
	case <-ctx.Done():
		p.observer.OnRejected(job.Kind, "cancelled")
		return nil, xerrors.New("workerpool.submit", xerrors.ErrCancelled, ctx.Err())
	case <-p.closed:
		p.observer.OnRejected(job.Kind, "pool_closed")
		return nil, xerrors.New("workerpool.submit", xerrors.ErrInternal, xerrors.ErrInternal)
	}

	select {
	case res := <-req.result:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Output, nil
	case <-ctx.Done():
		return nil, xerrors.New("workerpool.submit", xerrors.ErrCancelled, ctx.Err())
	}
}

// Close stops accepting new jobs and waits for in-flight jobs to drain.
// Pending, not-yet-started jobs are discarded without running, per §5's
// cancellation semantics.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
		close(p.jobs)
	})
	p.wg.Wait()
}
