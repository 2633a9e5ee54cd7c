package parafor

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// idleTask is the runnext slot's IDLE sentinel (spec §3 "Runnext slot"): a
// distinguished non-nil pointer, never returned to a caller, that a
// draining worker publishes to its own runnext to refuse further local
// self-pushes while it is about to give up its drain attempt.
var idleTask = &task{}

// perThread is per-worker (or, for a call made from outside the pool,
// per-top-level-call) state: a pointer to the owning pool, the logical
// worker index (-1 outside the pool), a 64-bit PRNG seeded from the
// goroutine's identity, and the nested ParallelFor call depth used by the
// Phase C stack-half-full substitute (spec §3 "PerThread state").
type perThread struct {
	pool      *Pool
	index     int
	rng       uint64
	nestDepth int
}

func (pt *perThread) nextRand32() uint32 {
	pt.rng ^= pt.rng << 13
	pt.rng ^= pt.rng >> 7
	pt.rng ^= pt.rng << 17
	return uint32(pt.rng >> 32)
}

// lemireReduce maps a uniform uint32 r into [0, s) without a division,
// per spec §4.4's victim-selection algorithm.
func lemireReduce(r, s uint32) uint32 {
	return uint32((uint64(r) * uint64(s)) >> 32)
}

var rngSeedCounter atomic.Uint64

func seedRNG() uint64 {
	c := rngSeedCounter.Add(1)
	x := c*0x9E3779B97F4A7C15 ^ uint64(goroutineID())
	if x == 0 {
		x = 1
	}
	return x
}

// workerRecord is the dense per-thread record the pool owns for each of
// its N workers: queue, mailbox, runnext fast path, and the local steal
// partition window used before falling back to a global steal.
type workerRecord struct {
	queue      runQueue
	box        *mailbox
	runnext    atomic.Pointer[task]
	stealFrom  int
	stealLimit int
	thread     *perThread
}

// Pool is C6: the fixed-size worker pool. It owns N worker goroutines,
// their queues/mailboxes, a coprime table for gap-free random walks, and
// the observability stack (tracer/metrics/hooks/clock) the rest of the
// core calls through thin hooks.
type Pool struct {
	n          int
	workers    []workerRecord
	coprimes   [][]uint32
	pin        bool
	done       atomic.Bool
	cancel     atomic.Bool
	activeFors atomic.Int64
	wg         sync.WaitGroup

	clock    clockz.Clock
	initTime time.Duration
	metrics  *metricz.Registry
	tracer   *tracez.Tracer
	hooks    *hookz.Hooks[PoolEvent]

	warmupOnce sync.Once
	closeOnce  sync.Once
}

// Option configures a Pool at construction.
type Option func(*Pool)

// WithClock overrides the clock Phase B's timespan budget is measured
// against. Tests inject clockz.NewFakeClock() to make the budget
// deterministic.
func WithClock(c clockz.Clock) Option {
	return func(p *Pool) { p.clock = c }
}

// WithInitTime overrides DefaultInitTime.
func WithInitTime(d time.Duration) Option {
	return func(p *Pool) { p.initTime = d }
}

// WithPinning enables CPU affinity pinning of each worker to the CPU
// matching its slot index (spec §5 "Pinning").
func WithPinning() Option {
	return func(p *Pool) { p.pin = true }
}

// NewPool constructs and starts a pool of n workers (n <= 0 resolves via
// NumThreads()). Invariant: N < 65536 (spec §3).
func NewPool(n int, opts ...Option) *Pool {
	if n <= 0 {
		n = NumThreads()
	}
	if n >= 65536 {
		n = 65535
	}

	p := &Pool{
		n:        n,
		workers:  make([]workerRecord, n),
		coprimes: buildCoprimeTable(n),
		clock:    clockz.RealClock,
		initTime: DefaultInitTime,
		metrics:  metricz.New(),
		tracer:   tracez.New(),
		hooks:    hookz.New[PoolEvent](),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.metrics.Counter(MetricParForsTotal)
	p.metrics.Gauge(MetricParForsCurrent)
	p.metrics.Counter(MetricTasksCreated)
	p.metrics.Counter(MetricTasksStolen)
	p.metrics.Counter(MetricTasksShared)
	p.metrics.Counter(MetricTasksLocal)
	p.metrics.Counter(MetricTasksMailbox)
	p.metrics.Counter(MetricTasksUndivided)
	p.metrics.Counter(MetricTasksInlineDrops)

	for i := range p.workers {
		p.workers[i].box = newMailbox()
		p.workers[i].stealFrom = 0
		p.workers[i].stealLimit = n
	}

	barrier := NewSpinBarrier(n)
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.workerLoop(i, barrier)
	}

	if p.hooks.ListenerCount(EventPoolStarted) > 0 {
		_ = p.hooks.Emit(context.Background(), EventPoolStarted, PoolEvent{NumWorkers: n}) //nolint:errcheck
	}

	p.warmUp()
	return p
}

// NumWorkers returns N.
func (p *Pool) NumWorkers() int { return p.n }

// Hooks exposes the pool's lifecycle event source so a host can subscribe
// without the hot path paying for anything when no listener is present.
func (p *Pool) Hooks() *hookz.Hooks[PoolEvent] { return p.hooks }

// OnWarmedUp registers a handler for the warmed-up event. The pool emits
// that event once, from its warm-up pass inside NewPool, which finishes
// before NewPool returns; a handler registered here afterwards is not
// called by that pass.
func (p *Pool) OnWarmedUp(handler func(context.Context, PoolEvent) error) error {
	_, err := p.hooks.Hook(EventPoolWarmedUp, handler)
	return err
}

// OnShutdown registers a handler called once Shutdown has joined every
// worker goroutine.
func (p *Pool) OnShutdown(handler func(context.Context, PoolEvent) error) error {
	_, err := p.hooks.Hook(EventPoolShutdown, handler)
	return err
}

// Metrics exposes the pool's counters/gauges.
func (p *Pool) Metrics() *metricz.Registry { return p.metrics }

// Tracer exposes the pool's span tracer.
func (p *Pool) Tracer() *tracez.Tracer { return p.tracer }

// warmUp runs a trivial ParallelFor whose tasks synchronize through a
// spin barrier, guaranteeing every worker has entered the dispatch path
// at least once before timing-sensitive callers start (spec §4.6).
func (p *Pool) warmUp() {
	p.warmupOnce.Do(func() {
		b := NewSpinBarrier(p.n)
		p.ParallelFor(0, p.n, func(int) { b.NotifyThenWait() })
		if p.hooks.ListenerCount(EventPoolWarmedUp) > 0 {
			_ = p.hooks.Emit(context.Background(), EventPoolWarmedUp, PoolEvent{NumWorkers: p.n}) //nolint:errcheck
		}
	})
}

func (p *Pool) workerLoop(i int, startBarrier *SpinBarrier) {
	defer p.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if p.pin {
		_ = pinThread(i)
	}

	pt := &perThread{pool: p, index: i, rng: seedRNG()}
	p.workers[i].thread = pt
	registerPerThread(pt)

	startBarrier.NotifyThenWait()

	for {
		t := p.nextTask(pt, i, false)
		if t == nil {
			if p.done.Load() && p.workers[i].queue.empty() {
				return
			}
			cpuRelax()
			continue
		}
		t.run()
	}
}

// nextTask implements the worker loop's dispatch order: runnext, then the
// local deque, then the mailbox, then a local-partition steal, then a
// global steal. When external is true (the caller is draining rather than
// idly looping) and nothing is found, the IDLE sentinel is published to
// runnext (spec §4.4).
func (p *Pool) nextTask(pt *perThread, i int, external bool) *task {
	w := &p.workers[i]

	if rn := w.runnext.Load(); rn != nil && rn != idleTask {
		if w.runnext.CompareAndSwap(rn, nil) {
			p.metrics.Counter(MetricTasksLocal).Inc()
			return rn
		}
	}
	if t := w.queue.popFront(); t != nil {
		p.metrics.Counter(MetricTasksLocal).Inc()
		return t
	}
	if t := w.box.tryPop(); t != nil {
		p.metrics.Counter(MetricTasksMailbox).Inc()
		return t
	}
	if t := p.stealWalk(pt, w.stealFrom, w.stealLimit, i); t != nil {
		return t
	}
	if t := p.stealWalk(pt, 0, p.n, i); t != nil {
		return t
	}

	if external {
		w.runnext.CompareAndSwap(nil, idleTask)
	}
	return nil
}

// stealWalk visits every worker index in [start, limit) exactly once, in
// a uniform random order, via Lemire-reduced start index and a
// coprime-of-window-size stride (spec §4.4).
func (p *Pool) stealWalk(pt *perThread, start, limit, selfIdx int) *task {
	s := limit - start
	if s <= 0 {
		return nil
	}
	r := pt.nextRand32()
	victim := int(lemireReduce(r, uint32(s)))
	co := p.coprimes[s-1]
	inc := int(co[lemireReduce(r, uint32(len(co)))])

	for step := 0; step < s; step++ {
		idx := start + victim
		if idx != selfIdx {
			if t := p.workers[idx].queue.popBack(); t != nil {
				p.metrics.Counter(MetricTasksStolen).Inc()
				p.emitTaskStolen(idx)
				return t
			}
		}
		victim = (victim + inc) % s
	}
	return nil
}

// schedule enqueues t: on the caller's own deque if the caller is a
// worker of this pool, otherwise onto a uniformly random worker's
// mailbox, falling back to inline execution on failure (spec §4.4).
func (p *Pool) schedule(t *task) {
	pt := p.currentOrTemp()
	if pt.pool == p && pt.index >= 0 {
		p.pushLocal(pt, t)
		return
	}
	idx := int(lemireReduce(pt.nextRand32(), uint32(p.n)))
	if p.workers[idx].box.tryPush(t) {
		return
	}
	p.metrics.Counter(MetricTasksInlineDrops).Inc()
	t.run()
}

// scheduleOn enqueues t on worker hint%N specifically (spec §4.4).
func (p *Pool) scheduleOn(t *task, hint int) {
	hint = ((hint % p.n) + p.n) % p.n
	pt := p.currentOrTemp()
	if pt.pool == p && pt.index == hint {
		p.pushLocal(pt, t)
		return
	}
	if p.workers[hint].box.tryPush(t) {
		return
	}
	p.metrics.Counter(MetricTasksInlineDrops).Inc()
	t.run()
}

func (p *Pool) pushLocal(pt *perThread, t *task) {
	w := &p.workers[pt.index]
	if w.runnext.Load() == nil && w.runnext.CompareAndSwap(nil, t) {
		return
	}
	if w.queue.pushFront(t) {
		return
	}
	p.metrics.Counter(MetricTasksInlineDrops).Inc()
	t.run()
}

func (p *Pool) currentOrTemp() *perThread {
	if pt, ok := currentPerThread(); ok {
		return pt
	}
	return &perThread{index: -1, rng: seedRNG()}
}

// tryExecuteOne attempts one dispatch cycle and executes it. Only valid
// when called from a worker goroutine (spec §4.4 contract); the facade's
// drain loop calls this only when the current goroutine is a pool worker,
// spinning with cpuRelax otherwise.
func (p *Pool) tryExecuteOne(pt *perThread) bool {
	t := p.nextTask(pt, pt.index, true)
	if t == nil {
		return false
	}
	p.workers[pt.index].runnext.CompareAndSwap(idleTask, nil)
	t.run()
	return true
}

func (p *Pool) emitTaskShared(toWorker int) {
	_, span := p.tracer.StartSpan(context.Background(), SpanTaskShared)
	span.SetTag(TagWorker, strconv.Itoa(toWorker))
	span.Finish()
}

func (p *Pool) emitTaskStolen(fromWorker int) {
	_, span := p.tracer.StartSpan(context.Background(), SpanTaskStolen)
	span.SetTag(TagStolen, strconv.Itoa(fromWorker))
	span.Finish()
}

// Cancel stops the pool from accepting new work and flushes every
// in-flight queue/mailbox so destructors see empty state (spec §5
// "Cancellation and timeouts").
func (p *Pool) Cancel() {
	p.cancel.Store(true)
	p.done.Store(true)
	for i := range p.workers {
		p.workers[i].queue.flush()
		p.workers[i].box.flush()
	}
}

// Shutdown sets done and joins every worker goroutine. Idempotent.
func (p *Pool) Shutdown() {
	p.closeOnce.Do(func() {
		p.done.Store(true)
		p.wg.Wait()
		if p.hooks.ListenerCount(EventPoolShutdown) > 0 {
			_ = p.hooks.Emit(context.Background(), EventPoolShutdown, PoolEvent{NumWorkers: p.n, Cancelled: p.cancel.Load()}) //nolint:errcheck
		}
		p.hooks.Close()
	})
}

func buildCoprimeTable(n int) [][]uint32 {
	table := make([][]uint32, n)
	for s := 1; s <= n; s++ {
		var co []uint32
		for i := uint32(1); i < uint32(s); i++ {
			if gcd(i, uint32(s)) == 1 {
				co = append(co, i)
			}
		}
		if len(co) == 0 {
			co = []uint32{1}
		}
		table[s-1] = co
	}
	return table
}

func gcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

