// Package parafor provides a work-stealing parallel-for runtime: a fixed
// worker pool that splits a loop's index range across goroutines, lets
// idle workers steal or receive shared sub-ranges from busier ones, and
// blocks the caller until every index has run exactly once.
//
// # Overview
//
// parafor exists for the common case a plain goroutine-per-chunk loop
// gets wrong: uneven work per index. A naive static split assigns each
// worker a fixed range up front, so one slow range stalls the whole call
// while other workers sit idle. parafor instead starts with an eager
// range split, timespan-bounds each worker's early iterations to smooth
// out cold-start variance, and falls back to a per-call midpoint
// self-split whenever a worker's remaining range still exceeds its grain
// size — so idle workers always have something stealable nearby.
//
// # Core Concepts
//
//   - Pool: a fixed-size set of worker goroutines, each owning a bounded
//     deque and mailbox, started once and reused across calls.
//   - ParallelFor: runs a Func over every index in [from, to) exactly
//     once, splitting and stealing the range across the Pool's workers.
//   - ParallelDo: runs two functions concurrently, one on a worker and
//     one inline on the caller, and returns once both finish.
//   - Mode: a named policy preset controlling whether a call eagerly
//     shares its range (Sharing) or only makes itself stealable
//     (Stealing), whether it time-bounds early iterations before
//     self-splitting (StealingGrain, SharingStealing and the "-auto"
//     variants), and whether the grain grows while it does ("-auto").
//
// # Usage Example
//
//	import "github.com/zoobzio/parafor"
//
//	func main() {
//	    parafor.InitParallel(0) // resolves worker count from the environment
//	    defer parafor.Shutdown()
//
//	    sum := make([]int64, parafor.ThreadIndex()+1)
//	    data := make([]int, 1_000_000)
//
//	    parafor.ParallelFor(0, len(data), func(i int) {
//	        data[i] = i * i
//	    })
//	}
//
// # Policies
//
// parafor ships six named Mode presets (ModeStealing through
// ModeSharingAuto); WithMode overrides a single call's mode, WithGrain
// sets the minimum chunk size below which a task stops self-splitting.
// The default, ModeSharingAuto, favors short loops: it shares the range
// up front and grows its grain adaptively so a short tail never
// over-splits into single-index tasks.
//
// # Concurrent Calls and Nesting
//
// Multiple goroutines may call ParallelFor on the same Pool concurrently;
// each gets its own task tree rooted at its own reference-counted node,
// so one call's completion never depends on another's. A Func may itself
// call ParallelFor (nested parallelism) — the nested call detects it is
// running on a pool worker and helps drain the pool while it waits
// instead of idly spinning, bounded by a per-goroutine self-split depth
// limit so recursive fan-out terminates.
//
// # Observability
//
// Every Pool carries a metricz.Registry, a tracez.Tracer, and a
// hookz.Hooks lifecycle source, all exposed via accessor methods so a
// host can wire them into its own dashboards without parafor imposing an
// exporter.
//
// # Cancellation
//
// Cancel stops a Pool from accepting new work and flushes every worker's
// queue and mailbox; Shutdown joins every worker goroutine and is safe to
// call even on a Pool that was never started.
package parafor
