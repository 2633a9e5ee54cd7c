//go:build !amd64 && !arm64

package parafor

import "runtime"

// cpuRelax falls back to runtime.Gosched on architectures without a
// dedicated spin-wait hint wired up above.
func cpuRelax() {
	runtime.Gosched()
}
