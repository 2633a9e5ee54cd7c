package parafor

import (
	"context"
	"strconv"
	"sync"
)

// ForOption configures a single ParallelFor call.
type ForOption func(*forConfig)

type forConfig struct {
	grain int
	mode  Mode
}

// WithGrain sets the minimum chunk size a task stops self-splitting at
// (spec §4.5's GRAIN_SIZE). Values less than 1 are treated as 1.
func WithGrain(grain int) ForOption {
	return func(c *forConfig) { c.grain = grain }
}

// WithMode selects one of the named policy presets for this call only,
// overriding the process-wide default set by SetPolicy.
func WithMode(m Mode) ForOption {
	return func(c *forConfig) { c.mode = m }
}

var globalMode = struct {
	mu sync.RWMutex
	m  Mode
}{m: defaultMode}

// SetPolicy changes the default Mode every subsequent ParallelFor call,
// package-level or on any Pool, uses when none is given WithMode
// explicitly.
func SetPolicy(m Mode) {
	globalMode.mu.Lock()
	globalMode.m = m
	globalMode.mu.Unlock()
}

func currentDefaultMode() Mode {
	globalMode.mu.RLock()
	defer globalMode.mu.RUnlock()
	return globalMode.m
}

// ParallelFor is C8: it runs f(i) for every i in [from, to) exactly once,
// sharing, stealing, and self-splitting the range across the pool's
// workers per the call's policy, then blocks the caller until every
// spawned task has retired (spec §4.6).
//
// ParallelFor may itself be called from inside another ParallelFor's Func
// — from a worker goroutine — in which case the caller helps drain the
// pool instead of idling, up to the nested self-split depth limit (spec
// §9's stack-half-full substitute).
func (p *Pool) ParallelFor(from, to int, f Func, opts ...ForOption) {
	if from >= to {
		return
	}

	cfg := forConfig{grain: 1, mode: currentDefaultMode()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.grain < 1 {
		cfg.grain = 1
	}

	p.metrics.Counter(MetricParForsTotal).Inc()
	gauge := p.metrics.Gauge(MetricParForsCurrent)
	gauge.Set(float64(p.activeFors.Add(1)))
	defer gauge.Set(float64(p.activeFors.Add(-1)))

	_, span := p.tracer.StartSpan(context.Background(), SpanParallelFor)
	span.SetTag(TagFrom, strconv.Itoa(from))
	span.SetTag(TagTo, strconv.Itoa(to))
	span.SetTag(TagGrain, strconv.Itoa(cfg.grain))
	span.SetTag(TagPolicy, string(cfg.mode))
	defer span.Finish()

	pt, existing := currentPerThread()
	if !existing {
		pt = &perThread{pool: p, index: -1, rng: seedRNG()}
		registerPerThread(pt)
		defer unregisterPerThread()
	}
	pt.nestDepth++
	defer func() { pt.nestDepth-- }()

	root := newTaskNode(nil)
	fail := &failureBox{}

	initialTask := &task{
		pool:    p,
		fn:      f,
		node:    newTaskNode(root),
		fail:    fail,
		current: from,
		end:     to,
		grain:   cfg.grain,
		window:  threadWindow{0, p.n},
		pol:     policyFor(cfg.mode),
		initial: true,
	}
	p.metrics.Counter(MetricTasksCreated).Inc()
	initialTask.run()

	p.drain(root, pt)
	root.release()

	if fail.value != nil {
		panic(fail.value)
	}
}

// ParallelDo runs f1 and f2 concurrently — f1 on a worker, f2 inline on
// the calling goroutine — and returns once both have completed (spec §4.2
// ParallelInvoke-style fork/join). A panic from either propagates to the
// caller once both have finished.
func (p *Pool) ParallelDo(f1, f2 func()) {
	pt, existing := currentPerThread()
	if !existing {
		pt = &perThread{pool: p, index: -1, rng: seedRNG()}
		registerPerThread(pt)
		defer unregisterPerThread()
	}
	pt.nestDepth++
	defer func() { pt.nestDepth-- }()

	_, span := p.tracer.StartSpan(context.Background(), SpanParallelDo)
	defer span.Finish()

	root := newTaskNode(nil)
	fail := &failureBox{}

	forked := &task{
		pool:    p,
		fn:      func(int) { f1() },
		node:    newTaskNode(root),
		fail:    fail,
		current: 0,
		end:     1,
		grain:   1,
		pol:     policy{sharing: sharingDisabled, balancing: balanceStatic, grain: grainFixed},
	}
	p.metrics.Counter(MetricTasksCreated).Inc()
	p.schedule(forked)

	func() {
		defer func() {
			if r := recover(); r != nil {
				fail.store(r)
			}
		}()
		f2()
	}()

	p.drain(root, pt)
	root.release()

	if fail.value != nil {
		panic(fail.value)
	}
}

// drain blocks until root's only remaining reference is the caller's own,
// helping execute other tasks when the caller is itself a worker of this
// pool, and spinning with a CPU-relax hint otherwise (spec §4.6 step 5).
func (p *Pool) drain(root *taskNode, pt *perThread) {
	for root.refs() > 1 {
		if pt.pool == p && pt.index >= 0 {
			if p.tryExecuteOne(pt) {
				continue
			}
		}
		cpuRelax()
	}
}

// defaultPool is the process-wide pool package-level ParallelFor/
// ParallelDo calls use when the host never constructs its own.
var (
	defaultPoolMu sync.Mutex
	defaultPool   *Pool
)

// InitParallel starts the default pool with n workers (n <= 0 resolves
// via NumThreads()). Calling it more than once, or after the default pool
// has already been created implicitly by a prior ParallelFor/ParallelDo
// call, has no effect — the first call wins (spec §4.6 "library-level
// initialization is once-only").
func InitParallel(n int, opts ...Option) {
	defaultPoolMu.Lock()
	defer defaultPoolMu.Unlock()
	if defaultPool != nil {
		return
	}
	defaultPool = NewPool(n, opts...)
}

func ensureDefaultPool() *Pool {
	defaultPoolMu.Lock()
	defer defaultPoolMu.Unlock()
	if defaultPool == nil {
		defaultPool = NewPool(0)
	}
	return defaultPool
}

// ParallelFor runs f(i) for every i in [from, to) on the default pool.
func ParallelFor(from, to int, f Func, opts ...ForOption) {
	ensureDefaultPool().ParallelFor(from, to, f, opts...)
}

// ParallelDo runs f1 and f2 concurrently on the default pool.
func ParallelDo(f1, f2 func()) {
	ensureDefaultPool().ParallelDo(f1, f2)
}

// ThreadIndex reports the calling goroutine's worker slot in whichever
// pool it is a worker of (not only the default pool), or -1 if the caller
// is not a pool worker (spec §4.6).
func ThreadIndex() int {
	pt, ok := currentPerThread()
	if !ok {
		return -1
	}
	return pt.index
}

// Cancel stops the default pool from accepting new work.
func Cancel() {
	defaultPoolMu.Lock()
	p := defaultPool
	defaultPoolMu.Unlock()
	if p != nil {
		p.Cancel()
	}
}

// Shutdown joins every worker of the default pool. Safe to call even if
// the default pool was never created.
func Shutdown() {
	defaultPoolMu.Lock()
	p := defaultPool
	defaultPoolMu.Unlock()
	if p != nil {
		p.Shutdown()
	}
}
