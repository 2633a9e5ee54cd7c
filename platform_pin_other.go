//go:build !linux

package parafor

// platformPinThread is a no-op outside Linux: there is no portable CPU
// affinity API exposed by the Go runtime or stdlib, and golang.org/x/sys
// only wires sched_setaffinity on Linux. Pinning degrades to a no-op
// rather than an error so pool construction still succeeds on darwin/
// windows/etc.
func platformPinThread(int) error {
	return nil
}
