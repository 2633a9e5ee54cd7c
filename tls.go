package parafor

import (
	"runtime"
	"strconv"
	"sync"
)

// goroutineID extracts the calling goroutine's runtime-assigned id by
// parsing the header line of its own stack trace ("goroutine 123 ...").
// This is parafor's substitute for thread_index.h's thread_local storage:
// Go exposes no public goroutine-local storage, and parsing
// runtime.Stack's header is the long-standing idiom the ecosystem reaches
// for in its place. It runs on every perThread lookup: on entry to
// ParallelFor/ParallelDo, on every schedule/scheduleOn call, and once per
// task run (Phase C's depth check), including tasks run by worker loops.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if len(b) > len(prefix) {
		b = b[len(prefix):]
	}
	i := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	id, _ := strconv.ParseInt(string(b[:i]), 10, 64)
	return id
}

var (
	perThreadMu sync.RWMutex
	perThreadOf = map[int64]*perThread{}
)

// registerPerThread associates pt with the calling goroutine. Worker
// goroutines call this once, for the lifetime of the pool. External
// callers call it once per top-level ParallelFor/ParallelDo entered from a
// goroutine not already registered, and unregister on return.
func registerPerThread(pt *perThread) {
	perThreadMu.Lock()
	perThreadOf[goroutineID()] = pt
	perThreadMu.Unlock()
}

func unregisterPerThread() {
	gid := goroutineID()
	perThreadMu.Lock()
	delete(perThreadOf, gid)
	perThreadMu.Unlock()
}

// currentPerThread looks up the perThread registered for the calling
// goroutine, if any. A nested ParallelFor call made from inside a running
// Func resolves to the same perThread as its enclosing call, whether that
// enclosing call is a worker's own loop or an external caller's drain —
// both register themselves before executing any user code.
func currentPerThread() (*perThread, bool) {
	perThreadMu.RLock()
	pt, ok := perThreadOf[goroutineID()]
	perThreadMu.RUnlock()
	return pt, ok
}
