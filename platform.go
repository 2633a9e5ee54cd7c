package parafor

import "runtime"

// maxSplitDepth bounds how many levels of nested ParallelFor/ParallelDo
// calls Phase C will keep self-splitting through (spec §4.5/§5's
// "stack-half-full" guard). The original probes the address of a stack
// local against a captured base/limit; Go's goroutine stacks grow
// automatically and expose no such bounds to user code, so parafor
// substitutes a bounded recursion-depth counter maintained per calling
// goroutine (see tls.go) — once a nested call's depth crosses this bound,
// Phase C stops creating new child tasks and drains its remaining range
// serially on the caller, exactly as the original does once its stack
// probe trips. Documented as an Open Question resolution in DESIGN.md.
const maxSplitDepth = 48

// pinThread pins the calling OS thread to the CPU whose index matches
// slot, mirroring util.h's PinThread. The caller must already hold
// runtime.LockOSThread for the duration the pin should last.
func pinThread(slot int) error {
	return platformPinThread(slot % runtime.NumCPU())
}
