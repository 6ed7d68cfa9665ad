package flow

import (
	"container/heap"
	"context"
	"sync"
)

// Hooks observes the runtime. Implementations must not call back into the
// runtime.
type Hooks interface {
	// Recomputed is called after a synchronous derivation ran.
	Recomputed(out *Output, err error)
	// AsyncIssued is called when an async derivation starts a call.
	AsyncIssued(out *Output)
	// AsyncSettled is called when an async call returns. stale results are
	// discarded without being published.
	AsyncSettled(out *Output, stale bool, err error)
}

type noHooks struct{}

func (noHooks) Recomputed(*Output, error)         {}
func (noHooks) AsyncIssued(*Output)               {}
func (noHooks) AsyncSettled(*Output, bool, error) {}

// Option configures a Runtime.
type Option func(*Runtime)

// WithHooks installs hooks, replacing the no-op default.
func WithHooks(h Hooks) Option {
	return func(rt *Runtime) {
		if h != nil {
			rt.hooks = h
		}
	}
}

// Runtime schedules propagation for every node bound to it.
type Runtime struct {
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	hooks    Hooks
	queue    queue
	seq      uint64
	draining bool

	// in-flight async calls; idle is closed when the count drops to zero.
	flightMu sync.Mutex
	inflight int
	idle     chan struct{}
}

// NewRuntime creates a runtime. ctx bounds every async call: cancelling it,
// or calling Close, cancels all of them. The logger in ctx is used for
// runtime diagnostics.
func NewRuntime(ctx context.Context, opts ...Option) *Runtime {
	ctx, cancel := context.WithCancel(ctx)
	rt := &Runtime{ctx: ctx, cancel: cancel, hooks: noHooks{}}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Do runs fn with exclusive access to the runtime and drains every
// propagation fn started before returning. Do is not reentrant: observers and
// derivations must not call it.
func (rt *Runtime) Do(fn func()) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	fn()
	rt.drain()
}

// Wait blocks until no async derivation is in flight or ctx is done.
func (rt *Runtime) Wait(ctx context.Context) error {
	for {
		rt.flightMu.Lock()
		if rt.inflight == 0 {
			rt.flightMu.Unlock()
			return nil
		}
		idle := rt.idle
		rt.flightMu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels every async call in flight. Their results are still
// delivered, as ExternalServiceErrors, unless superseded.
func (rt *Runtime) Close() {
	rt.cancel()
}

func (rt *Runtime) begin() {
	rt.flightMu.Lock()
	defer rt.flightMu.Unlock()
	if rt.inflight == 0 {
		rt.idle = make(chan struct{})
	}
	rt.inflight++
}

func (rt *Runtime) done() {
	rt.flightMu.Lock()
	defer rt.flightMu.Unlock()
	rt.inflight--
	if rt.inflight == 0 {
		close(rt.idle)
	}
}

// schedule queues d for the current wave unless it is already queued.
func (rt *Runtime) schedule(d *derivation) {
	if d.queued {
		return
	}
	rt.seq++
	d.seq = rt.seq
	d.queued = true
	heap.Push(&rt.queue, d)
}

// drain runs queued derivations lowest rank first until the queue is empty.
// Emissions during the loop only enqueue more work, so nested calls return
// immediately.
func (rt *Runtime) drain() {
	if rt.draining {
		return
	}
	rt.draining = true
	defer func() { rt.draining = false }()

	for rt.queue.Len() > 0 {
		d := heap.Pop(&rt.queue).(*derivation)
		d.queued = false
		d.run()
	}
}

// queue is a container/heap of derivations ordered by (node rank, seq).
type queue []*derivation

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	ri, rj := q[i].out.node.rank, q[j].out.node.rank
	if ri != rj {
		return ri < rj
	}
	return q[i].seq < q[j].seq
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *queue) Push(x any) {
	d := x.(*derivation)
	d.index = len(*q)
	*q = append(*q, d)
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	d := old[n-1]
	old[n-1] = nil
	d.index = -1
	*q = old[:n-1]
	return d
}
