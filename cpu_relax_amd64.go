package parafor

// cpuRelax issues a PAUSE instruction, hinting to the CPU that this
// goroutine is spin-waiting so a hyperthreaded sibling can make progress.
// Implemented in cpu_relax_amd64.s.
func cpuRelax()
