package parafor

import "sync/atomic"

// SpinBarrier is a counting down-latch that spins rather than blocks,
// suitable for fine-grained synchronization such as pool warm-up and CPU
// pinning coordination. Grounded on original_source/include/poor_barrier.h.
type SpinBarrier struct {
	remain atomic.Int64
}

// NewSpinBarrier returns a barrier that releases its waiters once count
// notifications have been recorded.
func NewSpinBarrier(count int) *SpinBarrier {
	b := &SpinBarrier{}
	b.remain.Store(int64(count))
	return b
}

// Notify records one arrival.
func (b *SpinBarrier) Notify() {
	b.remain.Add(-1)
}

// Wait spins with a CPU-relax hint until every expected arrival has
// called Notify.
func (b *SpinBarrier) Wait() {
	for b.remain.Load() > 0 {
		cpuRelax()
	}
}

// NotifyThenWait is the convenience form spec §8 scenario 7 exercises:
// every participant calls it, and all of them return only once every
// participant has called it at least once.
func (b *SpinBarrier) NotifyThenWait() {
	b.Notify()
	b.Wait()
}
