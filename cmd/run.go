package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/zoobzio/parafor"
)

var (
	runN       int
	runWorkers int
	runMode    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a ParallelFor over a trivial workload",
	Long:  "Run a ParallelFor over [0, n) and report wall-clock time and iteration count.",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().IntVar(&runN, "n", 1_000_000, "number of iterations")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "worker count (0 resolves from the environment)")
	runCmd.Flags().StringVar(&runMode, "mode", string(parafor.ModeSharingAuto), "policy mode")
}

func runRun(cmd *cobra.Command, args []string) error {
	pool := parafor.NewPool(runWorkers)
	defer pool.Shutdown()

	var count int64
	start := time.Now()
	pool.ParallelFor(0, runN, func(int) {
		atomic.AddInt64(&count, 1)
	}, parafor.WithMode(parafor.Mode(runMode)))
	elapsed := time.Since(start)

	fmt.Printf("workers=%d mode=%s n=%d completed=%d elapsed=%s\n",
		pool.NumWorkers(), runMode, runN, count, elapsed)
	return nil
}
