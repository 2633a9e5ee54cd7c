package parafor

// cpuRelax issues a YIELD hint on arm64. Implemented in cpu_relax_arm64.s.
func cpuRelax()
