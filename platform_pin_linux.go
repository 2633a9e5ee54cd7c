//go:build linux

package parafor

import "golang.org/x/sys/unix"

// platformPinThread uses sched_setaffinity to pin the calling OS thread to
// a single CPU. Grounded on golang.org/x/sys, which the rest of the
// example pack pulls in for low-level platform access; repurposed here
// from SIMD codegen use to thread pinning (see DESIGN.md).
func platformPinThread(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}
