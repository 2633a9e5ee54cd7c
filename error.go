package parafor

import "sync"

// failureBox carries a recovered panic value from wherever in a task tree
// it occurred — possibly a worker goroutine far from the original caller —
// back to the top-level ParallelFor/ParallelDo call that must re-raise it.
//
// Per spec §7/§9, parafor never returns a typed error: the only two
// outcomes of a call are full coverage or a panic propagating through the
// user's Func. A panic inside Func can happen on any goroutine executing
// any task in the tree, so recover/repanic alone (which is purely
// call-stack-scoped to one goroutine) cannot carry it back — failureBox is
// the shared, first-failure-wins handoff every task in one top-level
// call's tree points at.
type failureBox struct {
	once  sync.Once
	value any
}

func (f *failureBox) store(v any) {
	f.once.Do(func() { f.value = v })
}
