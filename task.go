package parafor

// Func is the per-iteration body a ParallelFor executes. i ranges over
// [from, to) exactly once if ParallelFor returns normally (spec §8
// Coverage).
type Func func(i int)

// threadWindow is the half-open range of worker indices [from, to) a task
// may eagerly share sub-ranges to during Phase A. It is set once at
// construction and never modified once a task begins executing (spec §3
// invariant).
type threadWindow struct {
	from, to int
}

func (w threadWindow) size() int { return w.to - w.from }

// task is the divisible work unit of C7. Its range [current, end) shrinks
// as it executes and splits.
type task struct {
	pool    *Pool
	fn      Func
	node    *taskNode
	fail    *failureBox
	current int
	end     int
	grain   int
	window  threadWindow
	pol     policy
	initial bool
}

func (t *task) isDivisible() bool {
	return t.current+t.grain < t.end
}

// run executes the task's phases in order (Created -> A -> B -> C -> Done),
// releases its TaskNode reference on every exit path, and recovers a
// panicking Func so the failure can be funneled back to the originating
// ParallelFor/ParallelDo call via fail, regardless of which goroutine this
// task happens to run on (spec §4.3/§9).
func (t *task) run() {
	defer t.node.release()
	defer func() {
		if r := recover(); r != nil {
			t.fail.store(r)
		}
	}()
	if t.initial && t.pol.sharing == sharingEnabled {
		t.distributeWork()
	}
	if t.pol.balancing == balanceTimespan {
		t.runTimespan()
	}
	t.runSplitDrain()
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// distributeWork is Phase A: the initial eager split across the task's
// thread window, grounded on Task::DistributeWork in
// timespan_partitioner.h.
func (t *task) distributeWork() {
	if t.window.size() == 1 || !t.isDivisible() {
		return
	}

	mine := ceilDiv(t.end-t.current, t.window.size())
	otherFrom := t.current + mine
	otherTo := t.end
	if otherFrom >= otherTo {
		return
	}
	t.end = otherFrom

	otherWinFrom := t.window.from + 1
	otherWinTo := t.window.to
	otherWinSize := otherWinTo - otherWinFrom
	otherRangeSize := otherTo - otherFrom

	const kSplit = 2
	parts := minInt(kSplit, minInt(otherWinSize, otherRangeSize))
	if parts <= 0 {
		return
	}

	threadStep := otherWinSize / parts
	threadRemainder := otherWinSize % parts
	dataStep := otherRangeSize / parts
	dataRemainder := otherRangeSize % parts

	// Remainder distribution (spec §4.5): extra thread units go to the
	// last sub-windows always. Extra data units go to the first
	// sub-ranges when the window divides evenly, otherwise to the last.
	dataRemainderToFirst := threadRemainder == 0

	winFrom := otherWinFrom
	dataFrom := otherFrom
	for i := 0; i < parts; i++ {
		winSize := threadStep
		if i >= parts-threadRemainder {
			winSize++
		}
		dSize := dataStep
		if dataRemainderToFirst {
			if i < dataRemainder {
				dSize++
			}
		} else if i >= parts-dataRemainder {
			dSize++
		}

		winTo := winFrom + winSize
		dataTo := dataFrom + dSize

		child := &task{
			pool:    t.pool,
			fn:      t.fn,
			node:    newTaskNode(t.node),
			fail:    t.fail,
			current: dataFrom,
			end:     dataTo,
			grain:   t.grain,
			window:  threadWindow{winFrom, winTo},
			pol:     t.pol,
			initial: true,
		}
		t.pool.metrics.Counter(MetricTasksCreated).Inc()
		t.pool.scheduleOn(child, winFrom)
		t.pool.metrics.Counter(MetricTasksShared).Inc()
		t.pool.emitTaskShared(winFrom)

		winFrom = winTo
		dataFrom = dataTo
	}
}

// runTimespan is Phase B: execute iterations until the clock budget
// elapses, optionally growing the grain while it runs.
func (t *task) runTimespan() {
	clock := t.pool.clock
	start := clock.Now()
	for t.current < t.end {
		t.execute()
		if clock.Now().Sub(start) > t.pool.initTime {
			break
		}
		if t.pol.grain == grainAuto {
			t.grain++
		}
	}
}

// runSplitDrain is Phase C: the midpoint self-split loop, followed by a
// straight drain of whatever range remains on this task.
func (t *task) runSplitDrain() {
	pt, _ := currentPerThread()
	undivided := true
	for t.current < t.end && t.current+t.grain < t.end && (pt == nil || pt.nestDepth < maxSplitDepth) {
		mid := t.current + (t.end-t.current)/2
		child := &task{
			pool:    t.pool,
			fn:      t.fn,
			node:    newTaskNode(t.node),
			fail:    t.fail,
			current: mid,
			end:     t.end,
			grain:   t.grain,
			pol:     policy{sharing: sharingDisabled, balancing: balanceStatic, grain: grainFixed},
			initial: false,
		}
		t.pool.metrics.Counter(MetricTasksCreated).Inc()
		t.pool.schedule(child)
		t.end = mid
		undivided = false
	}
	if undivided {
		t.pool.metrics.Counter(MetricTasksUndivided).Inc()
	}
	for t.current < t.end {
		t.execute()
	}
}

func (t *task) execute() {
	t.fn(t.current)
	t.current++
}
